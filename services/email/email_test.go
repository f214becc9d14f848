package emailsvc

import (
	"bytes"
	"context"
	"errors"
	"net/mail"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/settings"
)

type credsStub struct {
	creds settings.EmailCredentials
	err   error
}

func (s credsStub) EmailCredentials(context.Context) (settings.EmailCredentials, error) {
	return s.creds, s.err
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Secretaria",
		DefaultFromEmail: mail.Address{Name: "Secretaria", Address: "noreply@localhost"},
		Mail:             core.MailConfig{Provider: ProviderSMTP, SMTPHost: "localhost", SMTPPort: 2525},
	}
}

func TestConsoleService_Send(t *testing.T) {
	out := new(bytes.Buffer)
	svc := NewConsoleService(testConfig(), credsStub{creds: settings.EmailCredentials{Sender: "escola@x.com"}})
	svc.out = out

	err := svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "Lembrete", "Olá"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "From: \"Secretaria\" <escola@x.com>")
	assert.Contains(t, out.String(), "Subject: [Secretaria] Lembrete")
	assert.Contains(t, out.String(), "To: <mae@x.com>")
	assert.Contains(t, out.String(), "Olá")
}

func TestConsoleService_SendInvalid(t *testing.T) {
	svc := NewConsoleService(testConfig(), nil)
	svc.out = new(bytes.Buffer)

	err := svc.Send(context.Background(), core.NewEmailMessage("sem-arroba", "Lembrete", "Olá"))
	assert.Equal(t, core.ErrInvalidRecipient, pkgerrors.Cause(err))

	err = svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "Lembrete", ""))
	assert.Error(t, err)
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig())
	require.NoError(t, svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "A", "B")))
	require.Len(t, svc.Sent(), 1)
	assert.Equal(t, "B", svc.Sent()[0].BodyStr)

	svc.Err = errors.New("boom")
	assert.Equal(t, svc.Err, svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "A", "B")))
	assert.Len(t, svc.Sent(), 1)
}

func TestSMTPService_notConfigured(t *testing.T) {
	svc := NewSMTPService(testConfig(), credsStub{creds: settings.EmailCredentials{Sender: "escola@x.com"}})
	err := svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "A", "B"))
	assert.Equal(t, core.ErrMailNotConfigured, err)

	svc = NewSMTPService(testConfig(), credsStub{err: errors.New("db down")})
	err = svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "A", "B"))
	assert.Error(t, err)
	assert.NotEqual(t, core.ErrMailNotConfigured, pkgerrors.Cause(err))
}

func TestSMTPService_prepare(t *testing.T) {
	svc := NewSMTPService(testConfig(), nil)
	_, err := svc.prepare("escola@x.com", core.NewEmailMessage("mae@x.com", "Lembrete", "Olá"))
	require.NoError(t, err)

	_, err = svc.prepare("escola@x.com", core.NewEmailMessage("mae@", "Lembrete", "Olá"))
	assert.Equal(t, core.ErrInvalidRecipient, pkgerrors.Cause(err))

	_, err = svc.prepare("", core.NewEmailMessage("mae@x.com", "Lembrete", "Olá"))
	assert.Equal(t, core.ErrMailNotConfigured, pkgerrors.Cause(err))
}

func TestSendgridService_notConfigured(t *testing.T) {
	svc := NewSendgridService(testConfig(), nil)
	err := svc.Send(context.Background(), core.NewEmailMessage("mae@x.com", "A", "B"))
	assert.Equal(t, core.ErrMailNotConfigured, err)
}

func TestNewService(t *testing.T) {
	conf := testConfig()
	for provider, want := range map[string]interface{}{
		ProviderConsole:  &consoleService{},
		ProviderSMTP:     &smtpService{},
		ProviderSendgrid: &sendgridService{},
	} {
		conf.Mail.Provider = provider
		svc, err := NewService(conf, nil)
		require.NoError(t, err)
		assert.IsType(t, want, svc)
	}

	conf.Mail.Provider = "pigeon"
	_, err := NewService(conf, nil)
	assert.Error(t, err)
}
