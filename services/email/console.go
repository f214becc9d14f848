package emailsvc

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sonhodourado/secretaria/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	creds            CredentialsSource
	out              io.Writer
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints messages instead of sending them. The stored sender, if any, is used as From.
func NewConsoleService(conf *core.Config, creds CredentialsSource) *consoleService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		creds:            creds,
		out:              os.Stdout,
	}
}

func (svc *consoleService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := checkMessage(msg); err != nil {
		return err
	}

	from := svc.defaultFromEmail
	if svc.creds != nil {
		creds, err := svc.creds.EmailCredentials(ctx)
		if err != nil {
			return err
		}
		if creds.Sender != "" {
			from = mail.Address{Name: svc.defaultFromEmail.Name, Address: creds.Sender}
		}
	}

	if svc.out == nil {
		return nil
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", from.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprint(body, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.BodyStr)
	_, err := io.WriteString(svc.out, body.String())
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock records what it is asked to send; Err, when set, is returned instead.
type ConsoleServiceMock struct {
	consoleService

	mu           sync.Mutex
	SentMessages []core.EmailMessage
	Err          error
}

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromEmail,
			subjPrefix:       "[" + conf.AppName + "] ",
		},
	}
}

func (svc *ConsoleServiceMock) Send(ctx context.Context, msg *core.EmailMessage) error {
	if svc.Err != nil {
		return svc.Err
	}
	if err := svc.consoleService.Send(ctx, msg); err != nil {
		return err
	}
	svc.mu.Lock()
	svc.SentMessages = append(svc.SentMessages, *msg)
	svc.mu.Unlock()
	return nil
}

func (svc *ConsoleServiceMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.SentMessages...)
}
