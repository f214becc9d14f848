package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/school"
	"github.com/sonhodourado/secretaria/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// sentinelCodes pairs domain errors that reach the handler as is with their HTTP status.
var sentinelCodes = []struct {
	err  error
	code int
}{
	{user.ErrNotFound, http.StatusNotFound},
	{school.ErrNotFound, http.StatusNotFound},
	{billing.ErrNotFound, http.StatusNotFound},
	{msgtemplate.ErrNotFound, http.StatusNotFound},
	{notice.ErrUnknownKind, http.StatusNotFound},
	{notice.ErrUnknownChannel, http.StatusNotFound},
	{notice.ErrNotScheduled, http.StatusBadRequest},
	{notice.ErrChargeNotPending, http.StatusConflict},
	{notice.ErrOutsideWindow, http.StatusConflict},
}

// sentinelCode returns the status of a known domain error.
// err may be unhashable, like validator.ValidationErrors.
func sentinelCode(err error) (int, bool) {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if sc, ok := sentinelCode(cause); ok {
				code = sc
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if sess, sErr := getContextSession(ctx); sErr == nil {
				args = append(args, sess.User)
			}
			if logger != nil {
				logger.Error(msg, args...)
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
