package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sonhodourado/secretaria/core/user"
)

var ErrNotFound = errors.New("session not found or expired")

// Session is the authenticated context every API operation runs under.
// It is created by a successful credential check and torn down by Logout or expiry.
type Session struct {
	ID          string    `json:"id"`
	User        user.User `json:"user"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s Session) HasPermission(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type (
	Store interface {
		Save(ctx context.Context, sess Session) error
		// Get returns ErrNotFound for unknown or expired sessions.
		Get(ctx context.Context, id string) (Session, error)
		Delete(ctx context.Context, id string) error
	}

	Authenticator interface {
		Authenticate(ctx context.Context, username, pwd string) (user.User, error)
	}

	Service struct {
		store Store
		users Authenticator
		ttl   time.Duration
		now   func() time.Time
	}
)

func NewService(store Store, users Authenticator, ttl time.Duration) *Service {
	return &Service{
		store: store,
		users: users,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Login opens a new session for the user owning the credentials.
func (svc *Service) Login(ctx context.Context, username, pwd string) (Session, error) {
	usr, err := svc.users.Authenticate(ctx, username, pwd)
	if err != nil {
		return Session{}, err
	}

	now := svc.now().UTC()
	sess := Session{
		ID:          uuid.New().String(),
		User:        usr,
		Permissions: usr.Permissions(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(svc.ttl),
	}
	if err := svc.store.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Session{}, ErrNotFound
	}
	sess, err := svc.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(svc.now()) {
		_ = svc.store.Delete(ctx, id)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Logout ends the session. Ending an unknown session is not an error.
func (svc *Service) Logout(ctx context.Context, id string) error {
	return svc.store.Delete(ctx, id)
}
