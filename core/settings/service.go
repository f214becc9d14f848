package settings

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/sonhodourado/secretaria/core"
)

// Keys
const (
	KeyEmailSender   = "email_envio"
	KeyEmailPassword = "senha_app"
)

var ErrNotFound = errors.New("setting not found")

type (
	// EmailCredentials are the account notices are sent from.
	EmailCredentials struct {
		Sender   string `json:"sender" validate:"required,email"`
		Password string `json:"password,omitempty" validate:"required"`
	}

	Repository interface {
		GetSetting(ctx context.Context, key string) (string, error)
		// SetSetting inserts or overwrites the value of `key`.
		SetSetting(ctx context.Context, key, value string) error
		// SetSettings writes all `values` at once: either every key is saved or none is.
		SetSettings(ctx context.Context, values map[string]string) error
	}

	Service struct {
		repo Repository
	}
)

func (ec *EmailCredentials) Validate(validate *validator.Validate) error {
	ec.Sender = core.CleanString(ec.Sender, true /* lower */)
	return validate.Struct(ec)
}

// Configured tells if both the sender and its password are set.
func (ec EmailCredentials) Configured() bool {
	return ec.Sender != "" && ec.Password != ""
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) get(ctx context.Context, key string) (string, error) {
	val, err := svc.repo.GetSetting(ctx, key)
	if err != nil && err != ErrNotFound {
		return "", err
	}
	return val, nil
}

// EmailCredentials returns the stored credentials; unset keys come back empty.
func (svc *Service) EmailCredentials(ctx context.Context) (EmailCredentials, error) {
	sender, err := svc.get(ctx, KeyEmailSender)
	if err != nil {
		return EmailCredentials{}, err
	}
	pwd, err := svc.get(ctx, KeyEmailPassword)
	if err != nil {
		return EmailCredentials{}, err
	}
	return EmailCredentials{Sender: sender, Password: pwd}, nil
}

// SaveEmailCredentials stores the sender and its password together.
func (svc *Service) SaveEmailCredentials(ctx context.Context, creds EmailCredentials) error {
	return svc.repo.SetSettings(ctx, map[string]string{
		KeyEmailSender:   creds.Sender,
		KeyEmailPassword: creds.Password,
	})
}
