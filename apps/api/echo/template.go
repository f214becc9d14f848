package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/user"
)

type templateApi struct {
	svc      *msgtemplate.Service
	validate *validator.Validate
}

func registerTemplateAPI(
	g *echo.Group,
	authed echo.MiddlewareFunc,
	svc *msgtemplate.Service,
	validate *validator.Validate,
) {
	api := templateApi{
		svc:      svc,
		validate: validate,
	}

	tg := g.Group("/templates", authed, permissionMiddleware(user.PermSettings))
	tg.GET("", api.query)
	tg.POST("", api.create)

	// detail endpoints
	dg := tg.Group("/:channel/:name", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// objectMiddleware loads the template named by the path into the context.
func (api *templateApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		channel := msgtemplate.Channel(ctx.Param("channel"))
		if !channel.Valid() {
			return errHttpNotFound
		}
		tmpl, err := api.svc.Get(ctx.Request().Context(), channel, ctx.Param("name"))
		if err != nil {
			return errors.Wrap(err, "getting template")
		}
		ctx.Set("object", tmpl)
		return next(ctx)
	}
}

func contextTemplate(ctx echo.Context) (msgtemplate.Template, error) {
	tmpl, ok := ctx.Get("object").(msgtemplate.Template)
	if !ok {
		return msgtemplate.Template{}, errors.New("template object not found in echo.Context")
	}
	return tmpl, nil
}

// Handlers

func (api *templateApi) query(ctx echo.Context) error {
	channel := msgtemplate.Channel(ctx.QueryParam("channel"))
	if channel != "" && !channel.Valid() {
		return ctx.JSON(http.StatusOK, []msgtemplate.Template{})
	}

	templates, err := api.svc.Query(ctx.Request().Context(), channel)
	if err != nil {
		return errors.Wrap(err, "querying templates")
	}
	if templates == nil {
		templates = []msgtemplate.Template{}
	}
	return ctx.JSON(http.StatusOK, templates)
}

func (api *templateApi) create(ctx echo.Context) error {
	var data msgtemplate.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tmpl, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating template")
	}
	return ctx.JSON(http.StatusCreated, tmpl)
}

func (api *templateApi) retrieve(ctx echo.Context) error {
	tmpl, err := contextTemplate(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *templateApi) update(ctx echo.Context) error {
	tmpl, err := contextTemplate(ctx)
	if err != nil {
		return err
	}

	var data msgtemplate.UpdateTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTemplate")
	}
	if err := data.Validate(api.validate, tmpl); err != nil {
		return err
	}

	tmpl, err = api.svc.Update(ctx.Request().Context(), tmpl, data)
	if err != nil {
		return errors.Wrap(err, "updating template")
	}
	return ctx.JSON(http.StatusOK, tmpl)
}

func (api *templateApi) destroy(ctx echo.Context) error {
	tmpl, err := contextTemplate(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), tmpl.Channel, tmpl.Name); err != nil {
		return errors.Wrap(err, "deleting template")
	}
	return ctx.NoContent(http.StatusNoContent)
}
