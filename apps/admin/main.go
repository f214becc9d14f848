package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/user"
	logsvc "github.com/sonhodourado/secretaria/services/logger"
	"github.com/sonhodourado/secretaria/storage/database"
	sqlxrepos "github.com/sonhodourado/secretaria/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := logsvc.NewStdLogger(os.Stderr, conf)
	std.AddHook(logsvc.ComponentHook("admin"))
	logger := logsvc.NewRollbarLogger(std, conf)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Ping(ctx, db); err != nil {
		logger.Fatal(fmt.Sprintf("reaching database: %v", err), err)
	}
	cancel()

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db)),
		templates:  msgtemplate.NewService(sqlxrepos.NewTemplateRepository(db)),
		validate:   validate,
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
