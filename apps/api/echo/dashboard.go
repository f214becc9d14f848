package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/dashboard"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/user"
)

type dashboardApi struct {
	svc   *dashboard.Service
	clock *notice.Engine
}

func registerDashboardAPI(g *echo.Group, authed echo.MiddlewareFunc, svc *dashboard.Service, clock *notice.Engine) {
	api := dashboardApi{svc: svc, clock: clock}
	g.GET("/dashboard", api.retrieve, authed, permissionMiddleware(user.PermDashboard))
}

type DashboardResponse struct {
	dashboard.Summary
	Delinquency []dashboard.MonthTotal `json:"delinquency"`
}

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	summary, err := api.svc.Summary(reqCtx)
	if err != nil {
		return errors.Wrap(err, "summarizing")
	}
	// same calendar day as the notices
	delinquency, err := api.svc.Delinquency(reqCtx, api.clock.Today())
	if err != nil {
		return errors.Wrap(err, "computing delinquency")
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Summary: summary, Delinquency: delinquency})
}
