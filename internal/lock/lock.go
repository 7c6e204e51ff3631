// Package lock serializes use of the directory browser session. The browser
// profile directory can only be driven by one run at a time, within a
// process and, when Redis is configured, across processes.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/leadscout/internal/config"
)

// ErrHeld is returned when another owner holds the lock past the wait window.
var ErrHeld = eris.New("lock: held by another owner")

// Locker grants exclusive access. The returned release func is idempotent.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process lock backed by a weighted semaphore of size one.
type Local struct {
	sem *semaphore.Weighted
}

// NewLocal creates an in-process lock.
func NewLocal() *Local {
	return &Local{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the lock is free or ctx is done.
func (l *Local) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, eris.Wrap(err, "lock: acquire local")
	}
	return once(func() { l.sem.Release(1) }), nil
}

// Chain acquires each locker in order and releases them in reverse.
type Chain []Locker

// Acquire implements Locker.
func (c Chain) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		rel, err := l.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, rel)
	}
	return once(releaseAll), nil
}

// New builds the session lock from config. Without a Redis URL the lock is
// process-local. The returned close func releases the Redis client.
func New(ctx context.Context, cfg config.LockConfig) (Locker, func() error, error) {
	local := NewLocal()
	if cfg.RedisURL == "" {
		return local, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "lock: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "lock: ping redis")
	}

	zap.L().Info("lock: using redis session lock", zap.String("key", cfg.Key))
	rl := NewRedis(client, cfg.Key, RedisOptions{
		TTL:   time.Duration(cfg.TTLSecs) * time.Second,
		Wait:  time.Duration(cfg.WaitSecs) * time.Second,
		Retry: time.Duration(cfg.RetryMillis) * time.Millisecond,
	})
	return Chain{local, rl}, client.Close, nil
}

func once(fn func()) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		fn()
	}
}
