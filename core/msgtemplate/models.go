package msgtemplate

import (
	"github.com/go-playground/validator/v10"

	"github.com/sonhodourado/secretaria/core"
)

type Channel string

// Channels
const (
	ChannelEmail     Channel = "email"
	ChannelMessaging Channel = "messaging"
)

var AllChannels = []Channel{ChannelEmail, ChannelMessaging}

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelMessaging
}

// Template is a channel-scoped message with `{field}` placeholders.
// Subject is only meaningful on the email channel.
type Template struct {
	ID      int64   `json:"id" yaml:"-"`
	Name    string  `json:"name" yaml:"name"`
	Channel Channel `json:"channel" yaml:"channel"`
	Subject string  `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body    string  `json:"body" yaml:"body"`
}

type NewTemplate struct {
	Name    string  `json:"name" validate:"required,alphanum_"`
	Channel Channel `json:"channel" validate:"required,channel"`
	Subject string  `json:"subject"`
	Body    string  `json:"body" validate:"required,notblank"`
}

func (nt *NewTemplate) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name, true /* lower */)
	nt.Subject = core.CleanString(nt.Subject)
	if nt.Channel == ChannelMessaging {
		nt.Subject = ""
	}
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if nt.Channel == ChannelEmail && nt.Subject == "" {
		return core.NewFieldValidationError("subject", ErrSubjectRequired)
	}
	return nil
}

type UpdateTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body" validate:"required,notblank"`
}

func (ut *UpdateTemplate) Validate(validate *validator.Validate, orig Template) error {
	ut.Subject = core.CleanString(ut.Subject)
	if orig.Channel == ChannelMessaging {
		ut.Subject = ""
	} else if ut.Subject == "" {
		ut.Subject = orig.Subject
	}
	return validate.Struct(ut)
}
