package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sonhodourado/secretaria/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type sendgridService struct {
	key        string
	from       mail.Address
	subjPrefix string
	creds      CredentialsSource
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService sends through the SendGrid API. The stored sender, if any, replaces the default From.
func NewSendgridService(conf *core.Config, creds CredentialsSource) *sendgridService {
	return &sendgridService{
		key:        conf.Mail.SendgridApiKey,
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		creds:      creds,
	}
}

func (svc *sendgridService) prepare(from mail.Address, msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(from.Name, from.Address))
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.BodyStr))
	return m
}

func (svc *sendgridService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := checkMessage(msg); err != nil {
		return err
	}
	if svc.key == "" {
		return core.ErrMailNotConfigured
	}

	from := svc.from
	if svc.creds != nil {
		creds, err := svc.creds.EmailCredentials(ctx)
		if err != nil {
			return errors.Wrap(err, "loading email credentials")
		}
		if creds.Sender != "" {
			from.Address = creds.Sender
		}
	}

	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(from, msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}
