package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/teemow/slotkeeper/internal/logging"
)

const lockPrefix = "slotkeeper:lock:"

var (
	// ErrLockHeld is returned when the lock stays taken for the whole wait.
	ErrLockHeld = errors.New("another booking is in progress")

	// ErrLockUnavailable is returned when the lock store cannot be reached.
	ErrLockUnavailable = errors.New("slot lock store unavailable")
)

// SlotLocker serializes check-and-insert sequences on one calendar within
// a deployment.
type SlotLocker interface {
	// Lock blocks until the key is held, the wait elapses or ctx is done.
	// The returned function releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RedisLocker implements SlotLocker with SET NX PX. Only the holder's token
// can release a key; an abandoned lock expires after the TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	logger *slog.Logger
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLocker creates a RedisLocker. wait bounds how long Lock retries a
// held key.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		poll:   50 * time.Millisecond,
		logger: logging.WithService(logger, "lock"),
	}
}

// Ping checks the connection to redis.
func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	return nil
}

// Lock acquires key.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = lockPrefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ErrLockHeld
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
		case ok:
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockHeld
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// The booking context may already be cancelled; the release must still run.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err != nil && err != redis.Nil {
		l.logger.Warn("slot lock release failed, key will expire", slog.String("key", key), logging.Err(err))
	}
}

// Close closes the redis client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
