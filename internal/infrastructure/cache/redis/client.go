// Package redis provides the toolkit's response cache over Redis. External
// service lookups (BV-BRC, UniProt) and expensive match reports are cached
// here so repeated runs over the same genome or model do not re-fetch.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/pkg/errors"
)

// Client wraps the go-redis client so the rest of the codebase depends on
// this package, not on the driver.
type Client struct {
	*redis.Client
}

// NewClient connects to Redis per cfg and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeCacheError, "connecting to redis at %s", cfg.Addr)
	}
	return &Client{Client: rdb}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
