package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsepme/rsemodule/internal/wizard"
)

const maxUpdateRetries = 10

// RedisStore keeps progress as JSON under wizard:progress:<session id>.
// Every write refreshes the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(sessionID string) string { return "wizard:progress:" + sessionID }

func decode(data string) (wizard.Progress, error) {
	var p wizard.Progress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return p, fmt.Errorf("decoding progress: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (wizard.Progress, error) {
	data, err := s.client.Get(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return wizard.Progress{}, ErrNotFound
	}
	if err != nil {
		return wizard.Progress{}, err
	}
	return decode(data)
}

func (s *RedisStore) Create(ctx context.Context, sessionID string, p wizard.Progress) (wizard.Progress, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return p, err
	}
	ok, err := s.client.SetNX(ctx, key(sessionID), data, s.ttl).Result()
	if err != nil {
		return p, err
	}
	if ok {
		return p, nil
	}
	return s.Load(ctx, sessionID)
}

// Update runs fn inside WATCH/MULTI and retries when another writer
// changed the key in between.
func (s *RedisStore) Update(ctx context.Context, sessionID string, fn func(*wizard.Progress) error) (wizard.Progress, error) {
	k := key(sessionID)
	var out wizard.Progress

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		p, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		enc, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, enc, s.ttl)
			return nil
		})
		if err == nil {
			out = p
		}
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return wizard.Progress{}, fmt.Errorf("updating progress for %s: too much contention", sessionID)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, key(sessionID)).Err()
}
