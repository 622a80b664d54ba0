package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

var ErrLockNotHeld = errors.New(errors.ErrCodeLockNotAcquired, "lock not held by this owner")

// ScanLockKey names the lock guarding the alert scan.
const ScanLockKey = "lock:alert-scan"

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// LockOption configures a Mutex.
type LockOption func(*Mutex)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(m *Mutex) { m.ttl = ttl }
}

// WithOwnerToken fixes the token stored under the key.  Each TryLock
// otherwise draws a fresh uuid.
func WithOwnerToken(token string) LockOption {
	return func(m *Mutex) { m.token = func() string { return token } }
}

// Mutex is a single-holder lease: SET NX PX to take it, a compare-and-delete
// script to give it back.  A holder that dies leaves the key to expire.
type Mutex struct {
	client *Client
	key    string
	ttl    time.Duration
	token  func() string
	logger logging.Logger
}

var _ ports.ScanLocker = (*Mutex)(nil)

// NewMutex builds a lease over the prefixed key name.
func NewMutex(client *Client, name string, log logging.Logger, opts ...LockOption) *Mutex {
	m := &Mutex{
		client: client,
		key:    client.Key(name),
		ttl:    client.config.ScanLockTTL,
		token:  func() string { return uuid.New().String() },
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewScanLock is the mutex the alert engine takes before a scan.
func NewScanLock(client *Client, log logging.Logger, opts ...LockOption) *Mutex {
	return NewMutex(client, ScanLockKey, log, opts...)
}

// TryLock makes one attempt.  On success release gives the lease back only if
// this caller still owns it.
func (m *Mutex) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	token := m.token()
	ok, err := m.client.SetNX(ctx, m.key, token, m.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if !ok {
		m.logger.Debug("Lock held elsewhere", logging.String("key", m.key))
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		res, err := unlockScript.Run(ctx, m.client.GetUnderlyingClient(), []string{m.key}, token).Int64()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
		}
		if res == 0 {
			m.logger.Warn("Lock expired before release", logging.String("key", m.key))
			return ErrLockNotHeld
		}
		return nil
	}
	return release, true, nil
}

// TTL reports the remaining lease time.
func (m *Mutex) TTL(ctx context.Context) (time.Duration, error) {
	return m.client.PTTL(ctx, m.key).Result()
}

//Personal.AI order the ending
