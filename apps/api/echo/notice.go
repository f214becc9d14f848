package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/user"
)

type noticeApi struct {
	engine *notice.Engine
}

func registerNoticeAPI(g *echo.Group, authed echo.MiddlewareFunc, engine *notice.Engine) {
	api := noticeApi{engine: engine}

	ng := g.Group("/notices", authed, permissionMiddleware(user.PermNotices))
	ng.GET("/due", api.due)
	ng.POST("/:kind/:channel/send", api.sendAll)
	ng.POST("/:kind/:channel/charges/:id/send", api.sendOne)
}

func kindAndChannel(ctx echo.Context) (notice.Kind, msgtemplate.Channel, error) {
	kind, err := notice.ParseKind(ctx.Param("kind"))
	if err != nil {
		return "", "", err
	}
	channel := msgtemplate.Channel(ctx.Param("channel"))
	if !channel.Valid() {
		return "", "", notice.ErrUnknownChannel
	}
	return kind, channel, nil
}

// Handlers

func (api *noticeApi) due(ctx echo.Context) error {
	sets, err := api.engine.DueSets(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "selecting due charges")
	}
	if sets.FiveDay == nil {
		sets.FiveDay = []notice.Due{}
	}
	if sets.DueToday == nil {
		sets.DueToday = []notice.Due{}
	}
	return ctx.JSON(http.StatusOK, sets)
}

func (api *noticeApi) sendAll(ctx echo.Context) error {
	kind, channel, err := kindAndChannel(ctx)
	if err != nil {
		return err
	}
	report, err := api.engine.SendAll(ctx.Request().Context(), kind, channel)
	if err != nil {
		return errors.Wrap(err, "sending notices")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *noticeApi) sendOne(ctx echo.Context) error {
	kind, channel, err := kindAndChannel(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := api.engine.DispatchCharge(ctx.Request().Context(), id, kind, channel)
	if err != nil {
		return errors.Wrap(err, "sending notice")
	}
	return ctx.JSON(http.StatusOK, res)
}
