package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/session"
	"github.com/sonhodourado/secretaria/core/user"
)

const (
	contextSessionKey = "session"
	tokenAudience     = "secretaria"
)

// Claims is the payload of a session token. The session itself lives in the session store;
// the token only points at it through its ID (jti).
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Sector   string `json:"sector,omitempty"`
}

type tokenIssuer struct {
	key    []byte
	issuer string
}

func newTokenIssuer(conf *core.Config) tokenIssuer {
	return tokenIssuer{key: []byte(conf.SecretKey), issuer: conf.AppName}
}

// GenerateToken signs a token bound to the session.
func (ti tokenIssuer) GenerateToken(sess session.Session) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    ti.issuer,
			Subject:   strconv.FormatInt(sess.User.ID, 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Username: sess.User.Username,
		Sector:   sess.User.Sector,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies the signature, issuer and expiry of a token and returns its claims.
func (ti tokenIssuer) ParseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (interface{}, error) { return ti.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthorized
}

type authApi struct {
	tokens   tokenIssuer
	sessions *session.Service
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerAuthAPI(
	g *echo.Group,
	authed echo.MiddlewareFunc,
	tokens tokenIssuer,
	sessions *session.Service,
	users user.ServiceInterface,
	validate *validator.Validate,
) {
	api := authApi{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		validate: validate,
	}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, authed)
	ag.GET("/me", api.me, authed)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.sessions.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "opening session")
	}
	token, err := api.tokens.GenerateToken(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt, Session: sess})
}

func (api *authApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := api.sessions.Logout(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "closing session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token     string          `json:"token"`
		ExpiresAt time.Time       `json:"expires_at"`
		Session   session.Session `json:"session"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
