package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/dashboard"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/school"
	"github.com/sonhodourado/secretaria/core/session"
	"github.com/sonhodourado/secretaria/core/settings"
	"github.com/sonhodourado/secretaria/core/user"
	"github.com/sonhodourado/secretaria/services/metrics"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc      user.ServiceInterface
		SessionSvc   *session.Service
		SchoolSvc    *school.Service
		BillingSvc   *billing.Service
		TemplateSvc  *msgtemplate.Service
		SettingsSvc  *settings.Service
		DashboardSvc *dashboard.Service
		Notices      *notice.Engine
		Metrics      *metrics.Metrics // optional
	}

	Server struct {
		opts     Options
		app      *echo.Echo
		tokens   tokenIssuer
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		tokens:   newTokenIssuer(opts.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.opts.Metrics != nil {
		s.app.Use(s.opts.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := sessionMiddleware(s.tokens, s.opts.SessionSvc)

	registerAuthAPI(v1, authed, s.tokens, s.opts.SessionSvc, s.opts.UserSvc, s.opts.Validate)
	registerUserAPI(v1, authed, s.opts.UserSvc, s.opts.Validate)
	registerSchoolAPI(v1, authed, s.opts.SchoolSvc, s.opts.Validate)
	registerBillingAPI(v1, authed, s.opts.BillingSvc, s.opts.Notices, s.opts.Validate)
	registerNoticeAPI(v1, authed, s.opts.Notices)
	registerTemplateAPI(v1, authed, s.opts.TemplateSvc, s.opts.Validate)
	registerSettingsAPI(v1, authed, s.opts.SettingsSvc, s.opts.Validate)
	registerDashboardAPI(v1, authed, s.opts.DashboardSvc, s.opts.Notices)
}

// Start serves on the configured host until Shutdown. Failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the main loop to stop the server gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}
