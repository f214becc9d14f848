package core

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

var (
	// ErrMailNotConfigured is returned by email services when the sender or its credentials are not set.
	ErrMailNotConfigured = errors.New("email sender is not configured")
	// ErrInvalidRecipient is returned when a recipient address cannot receive mail.
	ErrInvalidRecipient = errors.New("invalid email recipient")
)

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // text/plain content
	}

	// EmailService is any service that can send emails.
	// Send blocks until the transport accepted or refused the message.
	EmailService interface {
		Send(ctx context.Context, msg *EmailMessage) error
	}
)

// NewEmailMessage returns a plain text message for a single recipient.
func NewEmailMessage(to, subject, body string) *EmailMessage {
	return &EmailMessage{
		To:      []mail.Address{{Address: CleanString(to)}},
		Subject: subject,
		BodyStr: body,
	}
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.BodyStr != "" }

// ValidRecipients checks that every recipient looks like an email address.
func (m *EmailMessage) ValidRecipients() bool {
	if !m.HasRecipients() {
		return false
	}
	for _, to := range m.To {
		if !strings.Contains(to.Address, "@") {
			return false
		}
	}
	return true
}

// Addresses returns the bare recipient addresses.
func (m *EmailMessage) Addresses() []string {
	addrs := make([]string, 0, len(m.To))
	for _, to := range m.To {
		addrs = append(addrs, to.Address)
	}
	return addrs
}
