package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/domain/shared"
	"github.com/thehub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestNewRedisLocker_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	l := NewRedisLocker(client, RedisLockerConfig{}, nil)
	assert.Equal(t, "hub:lock:", l.cfg.KeyPrefix)
	assert.Equal(t, 30*time.Second, l.cfg.TTL)
	assert.Equal(t, 25*time.Millisecond, l.cfg.RetryInterval)
	assert.NotNil(t, l.logger)
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client, RedisLockerConfig{WaitTimeout: 2 * time.Second}, zap.NewNop())
	release, err := l.Lock(context.Background(), "member:1")
	require.Error(t, err)
	assert.Nil(t, release)
}

func TestNewLocker(t *testing.T) {
	t.Run("local backend", func(t *testing.T) {
		l, closeFn, err := NewLocker(config.BillingConfig{LockBackend: config.LockBackendLocal}, config.RedisConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &LocalLocker{}, l)
		assert.NoError(t, closeFn())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := NewLocker(config.BillingConfig{LockBackend: "zookeeper"}, config.RedisConfig{}, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("redis backend fails fast without a server", func(t *testing.T) {
		_, _, err := NewLocker(
			config.BillingConfig{LockBackend: config.LockBackendRedis},
			config.RedisConfig{Host: "127.0.0.1", Port: 1},
			zap.NewNop(),
		)
		require.Error(t, err)
	})
}

func TestLockWaitError(t *testing.T) {
	t.Run("wait timeout is a retryable conflict", func(t *testing.T) {
		err := lockWaitError("hub:lock:member:1", context.DeadlineExceeded)
		require.ErrorIs(t, err, ErrLockTimeout)
		assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
		assert.Contains(t, err.Error(), "hub:lock:member:1")
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		err := lockWaitError("hub:lock:member:1", context.Canceled)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	})
}
