package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/sonhodourado/secretaria/core/session"
)

type inmemStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	now      func() time.Time
}

var _ session.Store = (*inmemStore)(nil)

// NewInmemStore keeps sessions in process memory; they do not survive restarts.
func NewInmemStore() *inmemStore {
	return &inmemStore{
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

func (s *inmemStore) Save(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.evictExpired()
	return nil
}

func (s *inmemStore) Get(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.now()) {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *inmemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// evictExpired must be called with the write lock held.
func (s *inmemStore) evictExpired() {
	now := s.now()
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
}
