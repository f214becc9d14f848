// Package emailsvc provides the email gateways: console (development), SMTP and SendGrid.
package emailsvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/settings"
)

// Providers
const (
	ProviderConsole  = "console"
	ProviderSMTP     = "smtp"
	ProviderSendgrid = "sendgrid"
)

// CredentialsSource returns the account email is sent from. Credentials are read on every send
// so that saving new ones takes effect immediately.
type CredentialsSource interface {
	EmailCredentials(ctx context.Context) (settings.EmailCredentials, error)
}

func checkMessage(msg *core.EmailMessage) error {
	if !msg.ValidRecipients() {
		return errors.Wrapf(core.ErrInvalidRecipient, "recipients %v", msg.Addresses())
	}
	if !msg.HasContent() {
		return errors.New("empty email body")
	}
	return nil
}

// NewService returns the gateway of the configured provider.
func NewService(conf *core.Config, creds CredentialsSource) (core.EmailService, error) {
	switch conf.Mail.Provider {
	case ProviderConsole, "":
		return NewConsoleService(conf, creds), nil
	case ProviderSMTP:
		return NewSMTPService(conf, creds), nil
	case ProviderSendgrid:
		return NewSendgridService(conf, creds), nil
	default:
		return nil, errors.Errorf("unknown mail provider %q", conf.Mail.Provider)
	}
}
