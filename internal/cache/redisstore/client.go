// Package redisstore wraps the Redis operations used by the result cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/seaenv/internal/core/observability"
)

// Backend is the metrics label of this store.
const Backend = "redis"

type Option func(*settings)

type settings struct {
	ro     *redis.Options
	ttl    time.Duration
	prefix string
}

func WithPoolSize(n int) Option {
	return func(s *settings) { s.ro.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *settings) { s.ro.WriteTimeout = d }
}

func WithDB(n int) Option {
	return func(s *settings) { s.ro.DB = n }
}

// WithTTL sets the expiry of written records. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *settings) { s.ttl = d }
}

// WithPrefix namespaces every key, e.g. per simulation campaign.
func WithPrefix(p string) Option {
	return func(s *settings) { s.prefix = p }
}

type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	s := settings{ro: &redis.Options{
		Addr:         addr,
		PoolSize:     8,
		MinIdleConns: 1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}}
	for _, f := range opts {
		f(&s)
	}

	rdb := redis.NewClient(s.ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveResultOp(Backend, "ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb, ttl: s.ttl, prefix: s.prefix}, nil
}

func (c *Client) Name() string { return Backend }

func (c *Client) key(k string) string { return c.prefix + k }

// Get returns the value at key; a missing key is (nil, false, nil).
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveResultOp(Backend, "get", nil, time.Since(start).Seconds())
		observability.IncResultMiss(Backend)
		return nil, false, nil
	}
	observability.ObserveResultOp(Backend, "get", err, time.Since(start).Seconds())
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	observability.IncResultHit(Backend)
	return b, true, nil
}

func (c *Client) Set(ctx context.Context, key string, val []byte) error {
	start := time.Now()
	err := c.rdb.Set(ctx, c.key(key), val, c.ttl).Err()
	observability.ObserveResultOp(Backend, "set", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
