package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockKeyPrefix = "reminder:lock:"

// releaseScript deletes the lock only if it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisInvoiceLocker implements billing.InvoiceLocker with SET NX locks in Redis.
// It is suitable for deployments where several instances run the reminder scheduler.
type RedisInvoiceLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisInvoiceLocker connects to Redis and creates a locker
func NewRedisInvoiceLocker(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisInvoiceLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisInvoiceLockerWithClient(client, "", ttl, logger), nil
}

// NewRedisInvoiceLockerWithClient creates a locker with an existing Redis client
func NewRedisInvoiceLockerWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisInvoiceLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisInvoiceLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// TryLock acquires the invoice lock without waiting.
// The lock expires after the TTL even if unlock is never called.
func (l *RedisInvoiceLocker) TryLock(ctx context.Context, invoiceID uuid.UUID) (func(), bool, error) {
	key := l.keyPrefix + invoiceID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire invoice lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// the caller's context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release invoice lock, it will expire",
				zap.String("invoice_id", invoiceID.String()),
				zap.Duration("ttl", l.ttl),
				zap.Error(err),
			)
		}
	}
	return unlock, true, nil
}

// Close closes the Redis client
func (l *RedisInvoiceLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for health checks)
func (l *RedisInvoiceLocker) GetClient() *redis.Client {
	return l.client
}

var _ billing.InvoiceLocker = (*RedisInvoiceLocker)(nil)
