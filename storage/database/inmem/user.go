// Package inmemdb keeps users in process memory, for tests and throwaway setups.
package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/user"
)

type userRepository struct {
	mu     sync.RWMutex
	pkSeq  int64
	table  map[int64]user.User
	byName map[string]int64
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository() *userRepository {
	return &userRepository{
		table:  make(map[int64]user.User),
		byName: make(map[string]int64),
	}
}

func (repo *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	_, ok := repo.byName[username]
	return ok, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.byName[usr.Username]; ok {
		return user.User{}, user.ErrUsernameExists
	}
	repo.pkSeq++
	usr.ID = repo.pkSeq
	repo.table[usr.ID] = usr
	repo.byName[usr.Username] = usr.ID
	return usr, nil
}

// less compares users on an API ordering field; unknown fields compare equal.
func less(a, b user.User, field string) (lt, eq bool) {
	switch strings.ToLower(field) {
	case "id":
		return a.ID < b.ID, a.ID == b.ID
	case "username":
		return a.Username < b.Username, a.Username == b.Username
	case "sector":
		return a.Sector < b.Sector, a.Sector == b.Sector
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case "last_login":
		return a.LastLogin.Before(b.LastLogin), a.LastLogin.Equal(b.LastLogin)
	}
	return false, true
}

func (repo *userRepository) QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	repo.mu.RLock()
	users := make([]user.User, 0, len(repo.table))
	for _, usr := range repo.table {
		users = append(users, usr)
	}
	repo.mu.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "username", Ascending: true}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			lt, eq := less(users[i], users[j], ord.Field)
			if eq {
				continue
			}
			return lt == ord.Ascending
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	id := filter.ID
	if id == 0 {
		id = repo.byName[filter.Username]
	}
	if usr, ok := repo.table[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	orig, ok := repo.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Username != orig.Username {
		if _, taken := repo.byName[usr.Username]; taken {
			return user.User{}, user.ErrUsernameExists
		}
		delete(repo.byName, orig.Username)
		repo.byName[usr.Username] = usr.ID
	}
	usr.CreatedAt = orig.CreatedAt
	repo.table[usr.ID] = usr
	return usr, nil
}
