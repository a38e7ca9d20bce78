package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("calendar lock not acquired")
)

// Locker guards a critical section keyed by an arbitrary string. The
// scheduling service keys it by (doctor, date) so that the conflict
// pre-check and the insert that follows run one at a time per calendar day.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	attempts   int
	retryDelay time.Duration
}

// NewRedisLocker creates a locker backed by one Redis key per lock. A busy key
// is retried up to attempts times, retryDelay apart, before giving up.
func NewRedisLocker(client *redis.Client, ttl time.Duration, attempts int, retryDelay time.Duration) Locker {
	if attempts < 1 {
		attempts = 1
	}
	return &redisLocker{
		client:     client,
		ttl:        ttl,
		attempts:   attempts,
		retryDelay: retryDelay,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = "lock:" + key
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// the caller's ctx may already be done; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisLocker) acquire(ctx context.Context, key, token string) error {
	for attempt := 0; attempt < l.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ErrLockNotAcquired
			case <-time.After(l.retryDelay):
			}
		}

		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
	}
	return ErrLockNotAcquired
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
