// Package sqlxrepos implements the repositories of every core service on top of sqlx.
// The same queries run on PostgreSQL and SQLite: placeholders are rebound for the driver.
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sonhodourado/secretaria/core"
)

type baseRepository struct {
	exec     core.DBExecutor
	sb       sq.StatementBuilderType
	postgres bool
}

func newBaseRepository(exec core.DBExecutor) baseRepository {
	var format sq.PlaceholderFormat = sq.Dollar
	postgres := true
	if sqlx.BindType(exec.DriverName()) == sqlx.QUESTION {
		format = sq.Question
		postgres = false
	}
	return baseRepository{exec: exec, sb: sq.StatementBuilder.PlaceholderFormat(format), postgres: postgres}
}

// rebind turns a `?` query into the driver's bindvar type.
func (repo baseRepository) rebind(query string) string {
	return repo.exec.Rebind(query)
}

func (repo baseRepository) get(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return repo.exec.GetContext(ctx, dest, query, args...)
}

func (repo baseRepository) selectAll(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return repo.exec.SelectContext(ctx, dest, query, args...)
}

// insert runs an INSERT and returns the id of the new row.
func (repo baseRepository) insert(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int64
	if err := repo.exec.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// modify runs an UPDATE or DELETE and reports whether a row matched.
func (repo baseRepository) modify(ctx context.Context, b sq.Sqlizer) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	res, err := repo.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// trapNoRowsErr maps sql "no rows" err to the domain's not found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// ilike matches `search` anywhere in any of `columns`, ignoring case.
// SQLite's LIKE only ignores the case of ASCII letters: there "ána" does not find "Ána".
func (repo baseRepository) ilike(search string, columns ...string) sq.Sqlizer {
	val := "%" + search + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		if repo.postgres {
			or = append(or, sq.ILike{col: val})
		} else {
			or = append(or, sq.Like{col: val})
		}
	}
	return or
}
