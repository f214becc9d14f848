package emailsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/settings"
)

type smtpService struct {
	host       string
	port       int
	fromName   string
	subjPrefix string
	creds      CredentialsSource
}

var _ core.EmailService = (*smtpService)(nil)

// NewSMTPService sends through an SMTP relay (Gmail by default) authenticated with the stored
// sender and app password.
func NewSMTPService(conf *core.Config, creds CredentialsSource) *smtpService {
	return &smtpService{
		host:       conf.Mail.SMTPHost,
		port:       conf.Mail.SMTPPort,
		fromName:   conf.DefaultFromEmail.Name,
		subjPrefix: "[" + conf.AppName + "] ",
		creds:      creds,
	}
}

func (svc *smtpService) credentials(ctx context.Context) (settings.EmailCredentials, error) {
	creds, err := svc.creds.EmailCredentials(ctx)
	if err != nil {
		return settings.EmailCredentials{}, errors.Wrap(err, "loading email credentials")
	}
	if !creds.Configured() {
		return settings.EmailCredentials{}, core.ErrMailNotConfigured
	}
	return creds, nil
}

func (svc *smtpService) prepare(from string, msg *core.EmailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(svc.fromName, from); err != nil {
		return nil, errors.Wrap(core.ErrMailNotConfigured, err.Error())
	}
	if err := m.To(msg.Addresses()...); err != nil {
		return nil, errors.Wrap(core.ErrInvalidRecipient, err.Error())
	}
	m.Subject(svc.subjPrefix + msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.BodyStr)
	return m, nil
}

func (svc *smtpService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := checkMessage(msg); err != nil {
		return err
	}
	creds, err := svc.credentials(ctx)
	if err != nil {
		return err
	}
	m, err := svc.prepare(creds.Sender, msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(svc.host,
		gomail.WithPort(svc.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(creds.Sender),
		gomail.WithPassword(creds.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return errors.Wrap(err, "creating SMTP client")
	}
	if err = client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrap(err, "sending email")
	}
	return nil
}
