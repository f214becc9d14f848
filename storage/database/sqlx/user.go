package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/user"
)

const userColumns = "id, username, email, sector, is_active, password_hash, created_at, last_login"

// API field: column
var userOrderings = map[string]string{
	"id":         "id",
	"username":   "username",
	"sector":     "sector",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           int64       `db:"id"`
	Username     string      `db:"username"`
	Email        null.String `db:"email"`
	Sector       string      `db:"sector"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepository: newBaseRepository(exec)}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Sector:       usr.Sector,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email.String,
		Sector:       row.Sector,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

func (repo userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	b := repo.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"username": username})
	if err := repo.get(ctx, &n, b); err != nil {
		return false, errors.Wrap(err, "checking username uniqueness")
	}
	return n > 0, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.boil(usr)
	id, err := repo.insert(ctx, repo.sb.Insert("users").
		Columns("username", "email", "sector", "is_active", "password_hash", "created_at", "last_login").
		Values(row.Username, row.Email.String, row.Sector, row.IsActive, row.PasswordHash, row.CreatedAt, row.LastLogin))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	row.ID = id
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	b := repo.sb.Select(userColumns).From("users")
	if clauses := core.AllowedOrderings(ordering, userOrderings); len(clauses) > 0 {
		b = b.OrderBy(clauses...)
	} else {
		b = b.OrderBy("username ASC")
	}

	var rows []userRow
	if err := repo.selectAll(ctx, &rows, b); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	b := repo.sb.Select(userColumns).From("users")
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		b = b.Where(sq.Eq{"username": filter.Username})
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.get(ctx, &row, b); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.boil(usr)
	found, err := repo.modify(ctx, repo.sb.Update("users").
		Set("username", row.Username).
		Set("email", row.Email.String).
		Set("sector", row.Sector).
		Set("is_active", row.IsActive).
		Set("password_hash", row.PasswordHash).
		Set("last_login", row.LastLogin).
		Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}
