// Package catalogcache keeps the CoWIN state and district catalogs in Redis so
// repeated runs skip the catalog calls.
package catalogcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cowin-slot-mailer/internal/cowin"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "cowin:catalog:"

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Cache wraps a cowin.Catalog. Redis failures are logged and fall through to
// the upstream catalog; they never fail a lookup on their own.
type Cache struct {
	rdb      *redis.Client
	upstream cowin.Catalog
	ttl      time.Duration
	log      logrus.FieldLogger
}

func New(rdb *redis.Client, upstream cowin.Catalog, ttl time.Duration, log logrus.FieldLogger) *Cache {
	return &Cache{rdb: rdb, upstream: upstream, ttl: ttl, log: log}
}

func (c *Cache) States(ctx context.Context) (*cowin.CowinStates, error) {
	out := &cowin.CowinStates{}
	if c.get(ctx, keyPrefix+"states", out) {
		return out, nil
	}
	states, err := c.upstream.States(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keyPrefix+"states", states)
	return states, nil
}

func (c *Cache) Districts(ctx context.Context, stateID int) (*cowin.CowinDistricts, error) {
	key := fmt.Sprintf("%sdistricts:%d", keyPrefix, stateID)
	out := &cowin.CowinDistricts{}
	if c.get(ctx, key, out) {
		return out, nil
	}
	districts, err := c.upstream.Districts(ctx, stateID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, districts)
	return districts, nil
}

func (c *Cache) get(ctx context.Context, key string, out interface{}) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache entry is corrupt")
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
	}
}
