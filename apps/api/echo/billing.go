package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/user"
)

type billingApi struct {
	svc      *billing.Service
	notices  *notice.Engine
	validate *validator.Validate
}

func registerBillingAPI(
	g *echo.Group,
	authed echo.MiddlewareFunc,
	svc *billing.Service,
	notices *notice.Engine,
	validate *validator.Validate,
) {
	api := billingApi{
		svc:      svc,
		notices:  notices,
		validate: validate,
	}

	bg := g.Group("/charges", authed, permissionMiddleware(user.PermBilling))
	bg.GET("", api.queryOpen)
	bg.POST("", api.create)
	bg.GET("/:id", api.retrieve)
	bg.POST("/:id/pay", api.pay)
}

// Handlers

func (api *billingApi) create(ctx echo.Context) error {
	var data billing.NewCharge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCharge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	charge, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating charge")
	}

	var channels []msgtemplate.Channel
	if data.NotifyEmail {
		channels = append(channels, msgtemplate.ChannelEmail)
	}
	if data.NotifyMessaging {
		channels = append(channels, msgtemplate.ChannelMessaging)
	}

	// the charge is saved whatever happens to its notices
	resp := NewChargeResponse{Charge: charge, Notices: make([]notice.Result, 0, len(channels))}
	for _, ch := range channels {
		res, err := api.notices.DispatchCharge(reqCtx, charge.ID, notice.KindNewCharge, ch)
		if err != nil {
			res = notice.Result{
				ChargeID:    charge.ID,
				StudentName: charge.StudentName,
				Kind:        notice.KindNewCharge,
				Channel:     ch,
				Outcome:     notice.OutcomeFailed,
				Reason:      notice.ReasonStoreFailure,
				Detail:      err.Error(),
			}
		}
		resp.Notices = append(resp.Notices, res)
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *billingApi) queryOpen(ctx echo.Context) error {
	charges, err := api.svc.QueryOpen(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying open charges")
	}
	if charges == nil {
		charges = []billing.Charge{}
	}
	return ctx.JSON(http.StatusOK, charges)
}

func (api *billingApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	charge, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting charge")
	}
	return ctx.JSON(http.StatusOK, charge)
}

func (api *billingApi) pay(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.MarkPaid(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "confirming payment")
	}
	charge, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting charge")
	}
	return ctx.JSON(http.StatusOK, charge)
}

type NewChargeResponse struct {
	Charge  billing.Charge  `json:"charge"`
	Notices []notice.Result `json:"notices"`
}
