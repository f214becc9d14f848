package user

import (
	"context"
	"errors"
	"time"

	"github.com/sonhodourado/secretaria/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		UsernameExists(ctx context.Context, username string) (bool, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// UpdateUser saves every field of `usr` but its ID and CreatedAt.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(username string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int64) (User, error)
		GetByUsername(ctx context.Context, username string) (User, error)
		Authenticate(ctx context.Context, username, pwd string) (User, error)
		SetPassword(ctx context.Context, username, pwd string) (User, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(username string) error {
	exists, err := svc.repo.UsernameExists(context.Background(), username)
	if err != nil {
		return err
	}
	if exists {
		return core.NewFieldValidationError("username", ErrUsernameExists)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Sector:    nu.Sector,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsername(ctx context.Context, username string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(username, true /* lower */)})
}

// Authenticate checks the credentials of an active user and stamps its last login.
func (svc *service) Authenticate(ctx context.Context, username, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, username)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, username, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	return svc.repo.UpdateUser(ctx, usr)
}
