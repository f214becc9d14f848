package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core/msgtemplate"
	appfs "github.com/sonhodourado/secretaria/fs"
)

func (cli *commandLine) seed(reset bool) error {
	f, err := appfs.FS.Open(appfs.TemplateFixtures)
	if err != nil {
		return errors.Wrap(err, "opening template fixtures")
	}
	defer func() { _ = f.Close() }()

	fixtures, err := msgtemplate.LoadFixtures(f)
	if err != nil {
		return errors.Wrap(err, "loading template fixtures")
	}
	if reset {
		if err = cli.templates.Reset(context.Background(), fixtures); err != nil {
			return err
		}
		cli.printf("%d templates reset\n", len(fixtures))
		return nil
	}
	if err = cli.templates.Seed(context.Background(), fixtures); err != nil {
		return err
	}
	cli.printf("%d templates checked\n", len(fixtures))
	return nil
}
