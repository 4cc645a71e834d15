package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps one JSON value per session with the record lifetime as TTL.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())

	if ttl <= 0 {
		return s.Delete(ctx, rec.ID)
	}

	raw, err := json.Marshal(rec)

	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return s.rdb.Set(ctx, redisKeyPrefix+rec.ID, raw, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNoSession
		}
		return Record{}, fmt.Errorf("load session: %w", err)
	}

	var rec Record

	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}

	if rec.Expired(s.now()) {
		return Record{}, ErrNoSession
	}

	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
