package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/request"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// CacheOption configures a RecordCache.
type CacheOption func(*RecordCache)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RecordCache) { c.ttl = ttl }
}

// WithoutJitter disables the ±10% TTL spread.
func WithoutJitter() CacheOption {
	return func(c *RecordCache) { c.jitter = false }
}

// WithAccessObserver reports every lookup as a hit or a miss.
func WithAccessObserver(fn func(hit bool)) CacheOption {
	return func(c *RecordCache) { c.observe = fn }
}

// RecordCache keeps JSON copies of request records.  Concurrent misses for the
// same id share one load.  Cache faults degrade to the loader.
type RecordCache struct {
	client  *Client
	logger  logging.Logger
	ttl     time.Duration
	jitter  bool
	group   singleflight.Group
	observe func(hit bool)
}

var _ ports.RecordCache = (*RecordCache)(nil)

func NewRecordCache(client *Client, log logging.Logger, opts ...CacheOption) *RecordCache {
	c := &RecordCache{
		client: client,
		logger: log,
		ttl:    client.config.CacheTTL,
		jitter: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RecordCache) key(id string) string {
	return c.client.Key("request", id)
}

func (c *RecordCache) expiry() time.Duration {
	if !c.jitter || c.ttl <= 0 {
		return c.ttl
	}
	spread := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(spread)
}

// Get returns the cached record for id, calling load on a miss and storing
// its result.  Load errors are never cached.
func (c *RecordCache) Get(ctx context.Context, id string, load func(context.Context) (*request.Record, error)) (*request.Record, error) {
	rec, err := c.lookup(ctx, id)
	if err != nil {
		c.logger.Warn("Record cache read failed", logging.RequestID(id), logging.Err(err))
	}
	if c.observe != nil {
		c.observe(rec != nil)
	}
	if rec != nil {
		return rec, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.store(ctx, loaded); err != nil {
			c.logger.Warn("Record cache write failed", logging.RequestID(id), logging.Err(err))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing the flight each get their own copy.
	return v.(*request.Record).Clone(), nil
}

// Invalidate drops id so the next Get reloads it.
func (c *RecordCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate cached request")
	}
	return nil
}

func (c *RecordCache) lookup(ctx context.Context, id string) (*request.Record, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	var rec request.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "corrupt cached request")
	}
	return &rec, nil
}

func (c *RecordCache) store(ctx context.Context, rec *request.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request")
	}
	return c.client.Set(ctx, c.key(rec.ID), data, c.expiry()).Err()
}

//Personal.AI order the ending
