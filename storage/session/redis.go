package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/sonhodourado/secretaria/core/session"
)

const keyPrefix = "session:"

type redisStore struct {
	client *redis.Client
}

var _ session.Store = (*redisStore)(nil)

func NewRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, sess session.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (session.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "loading session")
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}
