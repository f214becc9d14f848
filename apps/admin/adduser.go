package main

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return cli.validationError(err)
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	cli.printf("user %q created in sector %s\n", usr.Username, usr.Sector)
	return nil
}

// validationError flattens field errors into a single readable error.
func (cli *commandLine) validationError(err error) error {
	fields := make(map[string]string)
	switch verr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range verr {
			fields[fe.Field()] = fe.Translate(cli.translator)
		}
	case *core.ValidationError:
		for _, fe := range verr.Fields {
			fields[fe.Field] = fe.Error
		}
	default:
		return err
	}

	msgs := make([]string, 0, len(fields))
	for field, msg := range fields {
		msgs = append(msgs, field+": "+msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
