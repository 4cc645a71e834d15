package db

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/microblog/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "microblog"

// PoolOptions tunes the pool behind the credential and post stores.
type PoolOptions struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

func PoolOptionsFromConfig(cfg config.Config) PoolOptions {
	return PoolOptions{
		URL:            cfg.DBURL,
		MaxConns:       int32(cfg.DBMaxConns),
		ConnectTimeout: cfg.DBConnTimeout,
	}
}

// every request touches last_seen, so keep a couple of connections warm
func poolConfig(opts PoolOptions) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)

	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	cfg.MinConns = min(2, cfg.MaxConns)
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	return cfg, nil
}

// NewPool connects and pings within opts.ConnectTimeout.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(opts)

	if err != nil {
		return nil, err
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
