package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thehub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Locker serializes work on entity keys. LocalLocker and RedisLocker both
// implement it.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// NewRedisClient creates a Redis client and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewLocker builds the entity locker selected by billing.lock_backend.
// The returned close function releases the Redis client, if any.
func NewLocker(billingCfg config.BillingConfig, redisCfg config.RedisConfig, logger *zap.Logger) (Locker, func() error, error) {
	switch billingCfg.LockBackend {
	case config.LockBackendRedis:
		client, err := NewRedisClient(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Redis entity locks", zap.String("addr", redisCfg.Addr()))
		locker := NewRedisLocker(client, RedisLockerConfig{
			TTL:           billingCfg.LockTTL,
			RetryInterval: billingCfg.LockRetryInterval,
			WaitTimeout:   billingCfg.LockWaitTimeout,
		}, logger.Named("redis_locker"))
		return locker, client.Close, nil
	case config.LockBackendLocal, "":
		logger.Info("Using in-process entity locks")
		return NewLocalLocker(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", billingCfg.LockBackend)
	}
}

var (
	_ Locker = (*LocalLocker)(nil)
	_ Locker = (*RedisLocker)(nil)
)
