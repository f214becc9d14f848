package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/session"
)

const bearerPrefix = "Bearer "

// sessionMiddleware resolves the bearer token of the request into a live session.
func sessionMiddleware(tokens tokenIssuer, sessions *session.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, bearerPrefix) {
				return errUnauthorized
			}
			claims, err := tokens.ParseToken(strings.TrimSpace(auth[len(bearerPrefix):]))
			if err != nil {
				return errUnauthorized
			}

			sess, err := sessions.Get(ctx.Request().Context(), claims.ID)
			if err != nil {
				if errors.Cause(err) == session.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "loading session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// permissionMiddleware lets through sessions holding `perm`.
func permissionMiddleware(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			if sess.HasPermission(perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// adminMiddleware only lets administrators through.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			if sess.User.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
