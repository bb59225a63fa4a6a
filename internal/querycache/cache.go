// Package querycache caches backend reads in Redis, keyed by resource
// identity, with prefix invalidation after mutations.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyNamespace     = "qc"
	versionNamespace = "qc:ver"
)

// Key identifies a resource as ordered parts, e.g. {"words", "agni"}.
// A key is also a prefix of every key that extends it.
type Key []string

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (k Key) resource() string {
	if len(k) == 0 {
		return "unknown"
	}
	return k[0]
}

// Cache stores JSON-encoded query results.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
	group   singleflight.Group
}

// Option customises a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables hit and miss counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a cache whose entries expire after ttl.
func New(client *redis.Client, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func versionKey(prefix Key) string {
	return versionNamespace + ":" + prefix.String()
}

// storageKey embeds the version of every prefix of key, so bumping any
// prefix orphans the entry.
func (c *Cache) storageKey(ctx context.Context, key Key) (string, error) {
	if len(key) == 0 {
		return "", errors.New("querycache: empty key")
	}
	verKeys := make([]string, len(key))
	for i := range key {
		verKeys[i] = versionKey(key[:i+1])
	}
	values, err := c.client.MGet(ctx, verKeys...).Result()
	if err != nil {
		return "", fmt.Errorf("querycache: versions: %w", err)
	}
	versions := make([]string, len(values))
	for i, v := range values {
		versions[i] = "0"
		if s, ok := v.(string); ok && s != "" {
			versions[i] = s
		}
	}
	return keyNamespace + ":" + key.String() + "@" + strings.Join(versions, "."), nil
}

// Invalidate drops every cached entry whose key starts with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix Key) error {
	if c == nil || c.client == nil || len(prefix) == 0 {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(prefix)).Err(); err != nil {
		return fmt.Errorf("querycache: invalidate %s: %w", prefix, err)
	}
	return nil
}

// Fetch returns the cached value for key or runs load and caches its
// result. Concurrent misses on the same key share one load. Load errors
// are returned and never cached. When Redis is unreachable Fetch falls
// back to load.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if load == nil {
		return zero, errors.New("querycache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx)
	}

	skey, err := c.storageKey(ctx, key)
	if err != nil {
		c.logger.Warn("query cache unavailable", slog.String("key", key.String()), slog.Any("error", err))
		return load(ctx)
	}

	payload, err := c.client.Get(ctx, skey).Bytes()
	switch {
	case err == nil:
		var out T
		if err := json.Unmarshal(payload, &out); err == nil {
			c.metrics.hit(key.resource())
			return out, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("query cache read", slog.String("key", key.String()), slog.Any("error", err))
	}
	c.metrics.miss(key.resource())

	raw, err := c.loadShared(ctx, skey, func(ctx context.Context) ([]byte, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("querycache: decode %s: %w", key, err)
	}
	return out, nil
}

func (c *Cache) loadShared(ctx context.Context, skey string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	resultChan := c.group.DoChan(skey, func() (interface{}, error) {
		raw, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, skey, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("query cache write", slog.String("key", skey), slog.Any("error", err))
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Result is the outcome of a query as exposed to page handlers.
type Result[T any] struct {
	Data T
	Err  error
}

// OK reports whether the query succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Query wraps Fetch into a Result.
func Query[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) Result[T] {
	data, err := Fetch(ctx, c, key, load)
	return Result[T]{Data: data, Err: err}
}

// Version reports the current version of a prefix. Mainly useful in tests
// and diagnostics.
func (c *Cache) Version(ctx context.Context, prefix Key) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	raw, err := c.client.Get(ctx, versionKey(prefix)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
