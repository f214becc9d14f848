package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/settings"
	"github.com/sonhodourado/secretaria/core/user"
)

type settingsApi struct {
	svc      *settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(
	g *echo.Group,
	authed echo.MiddlewareFunc,
	svc *settings.Service,
	validate *validator.Validate,
) {
	api := settingsApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/settings", authed, permissionMiddleware(user.PermSettings))
	sg.GET("/email", api.retrieveEmail)
	sg.PUT("/email", api.updateEmail)
}

// EmailSettingsResponse never carries the stored password.
type EmailSettingsResponse struct {
	Sender      string `json:"sender"`
	PasswordSet bool   `json:"password_set"`
}

func emailSettingsResponse(creds settings.EmailCredentials) EmailSettingsResponse {
	return EmailSettingsResponse{Sender: creds.Sender, PasswordSet: creds.Password != ""}
}

// Handlers

func (api *settingsApi) retrieveEmail(ctx echo.Context) error {
	creds, err := api.svc.EmailCredentials(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting email credentials")
	}
	return ctx.JSON(http.StatusOK, emailSettingsResponse(creds))
}

func (api *settingsApi) updateEmail(ctx echo.Context) error {
	var data settings.EmailCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailCredentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.SaveEmailCredentials(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving email credentials")
	}
	return ctx.JSON(http.StatusOK, emailSettingsResponse(data))
}
