// Package redisclient opens the redis connection that holds session records.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/microblog/internal/config"
	"github.com/redis/go-redis/v9"
)

const clientName = "microblog-sessions"

type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// applied to dial, read and write
	Timeout time.Duration
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

// SessionClient wraps the connection used by session.RedisStore.
type SessionClient struct {
	addr string
	rdb  *redis.Client
}

func New(opts Options) *SessionClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ClientName:   clientName,
		PoolSize:     opts.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		// session reads sit on every request; fail fast instead of queueing
		PoolTimeout: timeout,
	})

	return &SessionClient{addr: opts.Addr, rdb: rdb}
}

// Ping is the readiness check for the session store.
func (c *SessionClient) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping session redis %s: %w", c.addr, err)
	}

	return nil
}

func (c *SessionClient) Close() error {
	return c.rdb.Close()
}

// Redis returns the connection for session.NewRedisStore.
func (c *SessionClient) Redis() *redis.Client {
	return c.rdb
}
