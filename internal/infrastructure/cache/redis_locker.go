package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// releaseScript deletes a lock key only while it still holds our token, so
// a lease that expired and was taken by another process is left alone.
var releaseScript = redis.NewScript(`
local n = 0
for i, key in ipairs(KEYS) do
	if redis.call("GET", key) == ARGV[1] then
		n = n + redis.call("DEL", key)
	end
end
return n
`)

// ErrLockTimeout is returned when a key stays held past the wait timeout.
// It carries CONCURRENCY_CONFLICT so the API answers 409 and clients retry.
var ErrLockTimeout = shared.NewDomainError(shared.CodeConcurrencyConflict, "Timed out waiting for a busy resource, please retry")

// RedisLockerConfig holds lease settings for RedisLocker
type RedisLockerConfig struct {
	KeyPrefix     string
	TTL           time.Duration // lease per key; bounds how long a crashed holder blocks others
	RetryInterval time.Duration
	WaitTimeout   time.Duration // zero waits until ctx is done
}

// RedisLocker serializes work on the same keys across processes using
// SET NX PX leases and a compare-and-delete release.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisLockerConfig
	logger *zap.Logger
}

// NewRedisLocker creates a RedisLocker over an existing client
func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *zap.Logger) *RedisLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "hub:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

// Lock acquires every key in sorted order. On error no key is held.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}
	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	keys = sortedUnique(keys)
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKey := l.cfg.KeyPrefix + key
		if err := l.acquire(ctx, redisKey, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, redisKey)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held, token) })
	}, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return lockWaitError(key, ctxErr)
			}
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return lockWaitError(key, ctx.Err())
		}
	}
}

func lockWaitError(key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrLockTimeout, key)
	}
	return err
}

// release runs with its own context so a cancelled request still frees its keys
func (l *RedisLocker) release(keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, keys, token).Err(); err != nil {
		l.logger.Error("Failed to release entity locks",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
