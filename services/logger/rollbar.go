// Package logsvc reports log entries to Rollbar and prints them as JSON through logrus.
package logsvc

import (
	"io"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/sirupsen/logrus"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/user"
)

type RollbarLogger struct {
	std *logrus.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewStdLogger returns the JSON printer used by every process.
func NewStdLogger(out io.Writer, conf *core.Config) *logrus.Logger {
	std := logrus.New()
	std.SetOutput(out)
	std.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)
	return std
}

func NewRollbarLogger(std *logrus.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, logrus.Fields) {
	var usrSet bool
	fields := make(logrus.Fields)
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch arg := arg.(type) {
		case user.User:
			// only set one User
			if !usrSet {
				rollbar.SetPerson(strconv.FormatInt(arg.ID, 10), arg.Username, arg.Email)
				fields["user"] = arg.Username
				usrSet = true
			}
		case error:
			fields[logrus.ErrorKey] = arg.Error()
			newArgs = append(newArgs, arg)
		case map[string]interface{}:
			for k, v := range arg {
				fields[k] = v
			}
			newArgs = append(newArgs, arg)
		default:
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rArgs...)
	l.std.WithFields(fields).Debug(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Info(rArgs...)
	l.std.WithFields(fields).Info(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rArgs...)
	l.std.WithFields(fields).Warn(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Error(rArgs...)
	l.std.WithFields(fields).Error(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rArgs...)
	rollbar.Wait()
	l.std.WithFields(fields).Fatal(msg)
}

// ComponentHook tags every entry with the part of the process that logged it.
type ComponentHook string

func (h ComponentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h ComponentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = string(h)
	return nil
}
