package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedisOptions tunes a Redis lock. Wait <= 0 waits until ctx is done.
// Refresh is how often a held lock's TTL is extended; it defaults to TTL/3.
type RedisOptions struct {
	TTL     time.Duration
	Wait    time.Duration
	Retry   time.Duration
	Refresh time.Duration
}

// Redis is a cross-process lock using SET NX with a TTL and a random
// ownership token, released atomically with a Lua script. While held, the
// TTL is extended in the background so long runs keep ownership; a crashed
// holder's lock still expires after one TTL.
type Redis struct {
	client *redis.Client
	key    string
	opts   RedisOptions
}

// NewRedis creates a Redis-backed lock on key.
func NewRedis(client *redis.Client, key string, opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.Retry <= 0 {
		opts.Retry = 500 * time.Millisecond
	}
	if opts.Refresh <= 0 || opts.Refresh >= opts.TTL {
		opts.Refresh = opts.TTL / 3
	}
	return &Redis{client: client, key: "lock:" + key, opts: opts}
}

// Acquire polls SET NX until it succeeds, the wait window passes (ErrHeld),
// or ctx is done.
func (l *Redis) Acquire(ctx context.Context) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	var deadline time.Time
	if l.opts.Wait > 0 {
		deadline = time.Now().Add(l.opts.Wait)
	}

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.opts.TTL).Result()
		if err != nil {
			return nil, eris.Wrapf(err, "lock: acquire %s", l.key)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.keepAlive(token, stop, done)
			return once(func() {
				close(stop)
				<-done
				l.release(token)
			}), nil
		}
		if !deadline.IsZero() && time.Now().Add(l.opts.Retry).After(deadline) {
			return nil, eris.Wrapf(ErrHeld, "lock: %s", l.key)
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "lock: acquire %s", l.key)
		case <-time.After(l.opts.Retry):
		}
	}
}

// keepAlive extends the TTL every Refresh while token still owns the key.
// It exits when stop closes or ownership is lost.
func (l *Redis) keepAlive(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.opts.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.opts.Refresh)
		n, err := refreshScript.Run(ctx, l.client, []string{l.key}, token, l.opts.TTL.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			zap.L().Warn("lock: refresh failed", zap.String("key", l.key), zap.Error(err))
		case n == 0:
			zap.L().Error("lock: ownership lost", zap.String("key", l.key))
			return
		}
	}
}

func (l *Redis) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		zap.L().Warn("lock: release failed", zap.String("key", l.key), zap.Error(err))
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", eris.Wrap(err, "lock: generate token")
	}
	return hex.EncodeToString(b), nil
}
