package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	echoapi "github.com/sonhodourado/secretaria/apps/api/echo"
	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/billing"
	"github.com/sonhodourado/secretaria/core/dashboard"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/notice"
	"github.com/sonhodourado/secretaria/core/school"
	"github.com/sonhodourado/secretaria/core/session"
	"github.com/sonhodourado/secretaria/core/settings"
	"github.com/sonhodourado/secretaria/core/user"
	appfs "github.com/sonhodourado/secretaria/fs"
	emailsvc "github.com/sonhodourado/secretaria/services/email"
	logsvc "github.com/sonhodourado/secretaria/services/logger"
	"github.com/sonhodourado/secretaria/services/messaging"
	"github.com/sonhodourado/secretaria/services/metrics"
	"github.com/sonhodourado/secretaria/storage/database"
	sqlxrepos "github.com/sonhodourado/secretaria/storage/database/sqlx"
	sessionstore "github.com/sonhodourado/secretaria/storage/session"
)

const dbSetupTimeout = 30 * time.Second

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(os.Stdout, conf)
	std.AddHook(logsvc.ComponentHook("api"))
	return logsvc.NewRollbarLogger(std, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(os.Stdout, conf)
	std.AddHook(logsvc.ComponentHook("db"))
	return logsvc.NewRollbarLogger(std, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), dbSetupTimeout)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newSessionStore(conf *core.Config) session.Store {
	if conf.Session.Store == "redis" {
		return sessionstore.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     conf.Session.RedisAddr,
			Password: conf.Session.RedisPassword,
			DB:       conf.Session.RedisDB,
		}))
	}
	return sessionstore.NewInmemStore()
}

func newSessionService(conf *core.Config, store session.Store, users user.ServiceInterface) *session.Service {
	return session.NewService(store, users, conf.Server.SessionTTL)
}

func newBillingService(repo billing.Repository, students *school.Service) *billing.Service {
	return billing.NewService(repo, students)
}

func newEmailService(conf *core.Config, creds *settings.Service, logger core.Logger) core.EmailService {
	svc, err := emailsvc.NewService(conf, creds)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email service: %v", err), err)
	}
	return svc
}

func newMetrics(db *sqlx.DB) *metrics.Metrics {
	m := metrics.NewMetrics()
	m.WatchDB(db.DB)
	return m
}

type NoticeParams struct {
	dig.In

	Conf      *core.Config
	Logger    core.Logger
	Charges   *billing.Service
	Contacts  *school.Service
	Templates *msgtemplate.Service
	Log       notice.SendLog
	Mailer    core.EmailService
	Links     *messaging.LinkBuilder
	Metrics   *metrics.Metrics
}

func newNoticeEngine(p NoticeParams) *notice.Engine {
	return notice.NewEngine(notice.Options{
		Charges:     p.Charges,
		Contacts:    p.Contacts,
		Templates:   p.Templates,
		Log:         p.Log,
		Mailer:      p.Mailer,
		Links:       p.Links,
		Recorder:    p.Metrics,
		Logger:      p.Logger,
		Location:    p.Conf.Location(),
		CountryCode: p.Conf.Messaging.CountryCode,
	})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	msgtemplate.InitValidators(validate, translator)
	return validate
}

type ServerParams struct {
	dig.In

	Conf         *core.Config
	Logger       core.Logger
	Validate     *validator.Validate
	Translator   ut.Translator
	UserSvc      user.ServiceInterface
	SessionSvc   *session.Service
	SchoolSvc    *school.Service
	BillingSvc   *billing.Service
	TemplateSvc  *msgtemplate.Service
	SettingsSvc  *settings.Service
	DashboardSvc *dashboard.Service
	Notices      *notice.Engine
	Metrics      *metrics.Metrics
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Options{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		DisableReqLogs: !p.Conf.Debug,
		UserSvc:        p.UserSvc,
		SessionSvc:     p.SessionSvc,
		SchoolSvc:      p.SchoolSvc,
		BillingSvc:     p.BillingSvc,
		TemplateSvc:    p.TemplateSvc,
		SettingsSvc:    p.SettingsSvc,
		DashboardSvc:   p.DashboardSvc,
		Notices:        p.Notices,
		Metrics:        p.Metrics,
	})
}

// SeedTemplates creates the embedded template fixtures missing from the store.
func SeedTemplates(ctx context.Context, svc *msgtemplate.Service) error {
	f, err := appfs.FS.Open(appfs.TemplateFixtures)
	if err != nil {
		return errors.Wrap(err, "opening template fixtures")
	}
	defer func() { _ = f.Close() }()

	fixtures, err := msgtemplate.LoadFixtures(f)
	if err != nil {
		return errors.Wrap(err, "loading template fixtures")
	}
	return svc.Seed(ctx, fixtures)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newMetrics))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewSchoolRepository, dig.As(new(school.Repository))))
	must(c.Provide(sqlxrepos.NewChargeRepository, dig.As(new(billing.Repository))))
	must(c.Provide(sqlxrepos.NewTemplateRepository, dig.As(new(msgtemplate.Repository))))
	must(c.Provide(sqlxrepos.NewSendLogRepository, dig.As(new(notice.SendLog))))
	must(c.Provide(sqlxrepos.NewSettingsRepository, dig.As(new(settings.Repository))))
	must(c.Provide(sqlxrepos.NewDashboardRepository, dig.As(new(dashboard.Repository))))
	must(c.Provide(newSessionStore))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(newSessionService))
	must(c.Provide(school.NewService))
	must(c.Provide(newBillingService))
	must(c.Provide(msgtemplate.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newEmailService))
	must(c.Provide(messaging.NewLinkBuilder))
	must(c.Provide(newNoticeEngine))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
