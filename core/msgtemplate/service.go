package msgtemplate

import (
	"context"
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/sonhodourado/secretaria/core"
)

var (
	ErrNotFound        = errors.New("template not found")
	ErrTemplateExists  = errors.New("a template with this name already exists on this channel")
	ErrSubjectRequired = errors.New("email templates need a subject")
)

type (
	Repository interface {
		// QueryTemplates lists every template, or only those of `channel` when set.
		QueryTemplates(ctx context.Context, channel Channel) ([]Template, error)
		GetTemplate(ctx context.Context, channel Channel, name string) (Template, error)
		CreateTemplate(ctx context.Context, tmpl Template) (Template, error)
		UpdateTemplate(ctx context.Context, tmpl Template) (Template, error)
		DeleteTemplate(ctx context.Context, channel Channel, name string) error
		// UpsertTemplate inserts the template or overwrites subject and body of the one with the same channel and name.
		UpsertTemplate(ctx context.Context, tmpl Template) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Query(ctx context.Context, channel Channel) ([]Template, error) {
	return svc.repo.QueryTemplates(ctx, channel)
}

func (svc *Service) Get(ctx context.Context, channel Channel, name string) (Template, error) {
	return svc.repo.GetTemplate(ctx, channel, core.CleanString(name, true /* lower */))
}

func (svc *Service) Create(ctx context.Context, nt NewTemplate) (Template, error) {
	if _, err := svc.repo.GetTemplate(ctx, nt.Channel, nt.Name); err == nil {
		return Template{}, core.NewFieldValidationError("name", ErrTemplateExists)
	} else if err != ErrNotFound {
		return Template{}, err
	}
	return svc.repo.CreateTemplate(ctx, Template{
		Name:    nt.Name,
		Channel: nt.Channel,
		Subject: nt.Subject,
		Body:    nt.Body,
	})
}

func (svc *Service) Update(ctx context.Context, orig Template, ut UpdateTemplate) (Template, error) {
	orig.Subject = ut.Subject
	orig.Body = ut.Body
	return svc.repo.UpdateTemplate(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, channel Channel, name string) error {
	return svc.repo.DeleteTemplate(ctx, channel, core.CleanString(name, true /* lower */))
}

// LoadFixtures decodes a YAML list of templates.
func LoadFixtures(r io.Reader) ([]Template, error) {
	var fixtures struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		return nil, pkgerrors.Wrap(err, "decoding template fixtures")
	}
	for i, tmpl := range fixtures.Templates {
		if !tmpl.Channel.Valid() || tmpl.Name == "" || tmpl.Body == "" {
			return nil, pkgerrors.Errorf("template fixture #%d (%q) is incomplete", i, tmpl.Name)
		}
		fixtures.Templates[i].Name = core.CleanString(tmpl.Name, true /* lower */)
	}
	return fixtures.Templates, nil
}

// Seed creates the fixtures missing from the store. Existing templates, edited or not, are left alone.
func (svc *Service) Seed(ctx context.Context, fixtures []Template) error {
	for _, tmpl := range fixtures {
		_, err := svc.repo.GetTemplate(ctx, tmpl.Channel, tmpl.Name)
		if err == nil {
			continue
		}
		if err != ErrNotFound {
			return pkgerrors.Wrapf(err, "seeding template %s/%s", tmpl.Channel, tmpl.Name)
		}
		if _, err = svc.repo.CreateTemplate(ctx, tmpl); err != nil {
			return pkgerrors.Wrapf(err, "seeding template %s/%s", tmpl.Channel, tmpl.Name)
		}
	}
	return nil
}

// Reset overwrites subject and body of the fixtures, creating the missing ones.
func (svc *Service) Reset(ctx context.Context, fixtures []Template) error {
	for _, tmpl := range fixtures {
		if err := svc.repo.UpsertTemplate(ctx, tmpl); err != nil {
			return pkgerrors.Wrapf(err, "resetting template %s/%s", tmpl.Channel, tmpl.Name)
		}
	}
	return nil
}
