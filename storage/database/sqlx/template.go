package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/msgtemplate"
)

type templateRow struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Channel string `db:"channel"`
	Subject string `db:"subject"`
	Body    string `db:"body"`
}

func (row templateRow) unboil() msgtemplate.Template {
	return msgtemplate.Template{
		ID:      row.ID,
		Name:    row.Name,
		Channel: msgtemplate.Channel(row.Channel),
		Subject: row.Subject,
		Body:    row.Body,
	}
}

type templateRepository struct {
	baseRepository
}

var _ msgtemplate.Repository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(exec core.DBExecutor) *templateRepository {
	return &templateRepository{baseRepository: newBaseRepository(exec)}
}

func (repo templateRepository) selectTemplates() sq.SelectBuilder {
	return repo.sb.Select("id", "name", "channel", "subject", "body").From("message_templates")
}

func (repo templateRepository) QueryTemplates(ctx context.Context, channel msgtemplate.Channel) ([]msgtemplate.Template, error) {
	b := repo.selectTemplates().OrderBy("channel ASC", "name ASC")
	if channel != "" {
		b = b.Where(sq.Eq{"channel": string(channel)})
	}

	var rows []templateRow
	if err := repo.selectAll(ctx, &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting templates")
	}
	templates := make([]msgtemplate.Template, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, row.unboil())
	}
	return templates, nil
}

func (repo templateRepository) GetTemplate(ctx context.Context, channel msgtemplate.Channel, name string) (msgtemplate.Template, error) {
	var row templateRow
	b := repo.selectTemplates().Where(sq.Eq{"channel": string(channel), "name": name})
	if err := repo.get(ctx, &row, b); err != nil {
		return msgtemplate.Template{}, trapNoRowsErr(err, msgtemplate.ErrNotFound, "selecting template")
	}
	return row.unboil(), nil
}

func (repo templateRepository) CreateTemplate(ctx context.Context, tmpl msgtemplate.Template) (msgtemplate.Template, error) {
	id, err := repo.insert(ctx, repo.sb.Insert("message_templates").
		Columns("name", "channel", "subject", "body").
		Values(tmpl.Name, string(tmpl.Channel), tmpl.Subject, tmpl.Body))
	if err != nil {
		return msgtemplate.Template{}, errors.Wrap(err, "inserting template")
	}
	tmpl.ID = id
	return tmpl, nil
}

func (repo templateRepository) UpdateTemplate(ctx context.Context, tmpl msgtemplate.Template) (msgtemplate.Template, error) {
	found, err := repo.modify(ctx, repo.sb.Update("message_templates").
		Set("subject", tmpl.Subject).
		Set("body", tmpl.Body).
		Where(sq.Eq{"id": tmpl.ID}))
	if err != nil {
		return msgtemplate.Template{}, errors.Wrap(err, "updating template")
	}
	if !found {
		return msgtemplate.Template{}, msgtemplate.ErrNotFound
	}
	return tmpl, nil
}

func (repo templateRepository) DeleteTemplate(ctx context.Context, channel msgtemplate.Channel, name string) error {
	found, err := repo.modify(ctx, repo.sb.Delete("message_templates").
		Where(sq.Eq{"channel": string(channel), "name": name}))
	if err != nil {
		return errors.Wrap(err, "deleting template")
	}
	if !found {
		return msgtemplate.ErrNotFound
	}
	return nil
}

func (repo templateRepository) UpsertTemplate(ctx context.Context, tmpl msgtemplate.Template) error {
	q := repo.sb.Insert("message_templates").
		Columns("name", "channel", "subject", "body").
		Values(tmpl.Name, string(tmpl.Channel), tmpl.Subject, tmpl.Body).
		Suffix("ON CONFLICT (channel, name) DO UPDATE SET subject = excluded.subject, body = excluded.body")
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.exec.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "upserting template")
	}
	return nil
}
