package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "tantu"

// Cache is a Redis read-through cache. Keys embed a per-namespace version so a
// write can invalidate every cached list of that namespace with one INCR.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, logger: slog.Default()}
}

// WithLogger sets the logger used to report Redis failures.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	if c != nil && logger != nil {
		c.logger = logger
	}
	return c
}

func versionKey(namespace string) string {
	return keyPrefix + ":" + namespace + ":version"
}

// Version returns the current namespace version, initialising when missing.
func (c *Cache) Version(ctx context.Context, namespace string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(namespace), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(namespace)).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current namespace version.
func (c *Cache) BuildKey(ctx context.Context, namespace string, parts ...string) (string, error) {
	base := strings.Join(append([]string{keyPrefix, namespace}, parts...), ":")
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx, namespace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", base, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader. Concurrent
// misses on the same key share one loader call. Redis failures are logged and
// served from the loader, so reads never fail because the cache is down.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		c.log().Warn("cache read failed, loading directly", slog.String("key", key), slog.Any("error", err))
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.log().Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every key of the namespace.
func (c *Cache) Bump(ctx context.Context, namespace string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(namespace)).Err()
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
