package settings_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/settings"
	sqlxrepos "github.com/sonhodourado/secretaria/storage/database/sqlx"
	"github.com/sonhodourado/secretaria/tests"
)

func TestEmailCredentials_Validate(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	creds := settings.EmailCredentials{Sender: " Secretaria@Escola.test ", Password: "app-pwd"}
	require.NoError(t, creds.Validate(validate))
	assert.Equal(t, "secretaria@escola.test", creds.Sender)
	assert.True(t, creds.Configured())

	assert.Error(t, (&settings.EmailCredentials{Sender: "secretaria", Password: "app-pwd"}).Validate(validate))
	assert.Error(t, (&settings.EmailCredentials{Sender: "secretaria@escola.test"}).Validate(validate))
	assert.False(t, settings.EmailCredentials{Sender: "secretaria@escola.test"}.Configured())
}

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	ctx := context.Background()
	svc := settings.NewService(sqlxrepos.NewSettingsRepository(db))

	creds, err := svc.EmailCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.EmailCredentials{}, creds)

	require.NoError(t, svc.SaveEmailCredentials(ctx, settings.EmailCredentials{Sender: "secretaria@escola.test", Password: "first"}))
	require.NoError(t, svc.SaveEmailCredentials(ctx, settings.EmailCredentials{Sender: "financeiro@escola.test", Password: "second"}))

	creds, err = svc.EmailCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.EmailCredentials{Sender: "financeiro@escola.test", Password: "second"}, creds)
}
