package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v7"
)

const keyPrefix = "session:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

func (store *RedisStore) Set(s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session has no id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is already expired")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return store.client.Set(keyPrefix+s.ID, data, ttl).Err()
}

// Get returns the session for the given id, or nil when it does not exist.
// A record that fails to decode is treated as absent, a corrupt session
// must never surface as a parse fault.
func (store *RedisStore) Get(id string) (*Session, error) {
	r, err := store.client.Get(keyPrefix + id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := &Session{}
	if err := json.Unmarshal([]byte(r), s); err != nil {
		return nil, nil
	}
	if s.ID == "" || s.Expired() {
		return nil, nil
	}
	return s, nil
}

func (store *RedisStore) Delete(id string) error {
	return store.client.Del(keyPrefix + id).Err()
}
