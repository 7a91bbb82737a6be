// Package cache keeps short-lived per-user conversation summaries so badge
// polling does not hit MySQL on every tick.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	jww "github.com/spf13/jwalterweatherman"
)

// ErrMiss is returned when nothing is cached for the key.
var ErrMiss = errors.New("cache miss")

// SummaryCache stores opaque JSON per user.
type SummaryCache interface {
	Get(ctx context.Context, uid string, out interface{}) error
	Set(ctx context.Context, uid string, v interface{}) error
	Invalidate(ctx context.Context, uids ...string)
}

type redisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis returns a cache whose entries expire after ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration) SummaryCache {
	return &redisCache{rdb: rdb, ttl: ttl, prefix: "hobbiz:conv-summary:"}
}

func (c *redisCache) Get(ctx context.Context, uid string, out interface{}) error {
	raw, err := c.rdb.Get(ctx, c.prefix+uid).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return errors.Wrap(err, "redis get")
	}
	return json.Unmarshal(raw, out)
}

func (c *redisCache) Set(ctx context.Context, uid string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return errors.Wrap(c.rdb.Set(ctx, c.prefix+uid, raw, c.ttl).Err(), "redis set")
}

func (c *redisCache) Invalidate(ctx context.Context, uids ...string) {
	keys := make([]string, 0, len(uids))
	for _, uid := range uids {
		if uid != "" {
			keys = append(keys, c.prefix+uid)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		jww.WARN.Printf("cache: invalidate %v: %v", uids, err)
	}
}

type noop struct{}

// NewNoop returns a cache that never holds anything.
func NewNoop() SummaryCache {
	return noop{}
}

func (noop) Get(context.Context, string, interface{}) error { return ErrMiss }
func (noop) Set(context.Context, string, interface{}) error  { return nil }
func (noop) Invalidate(context.Context, ...string)          {}
