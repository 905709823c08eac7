package cache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClosableLocker is an InvoiceLocker holding a connection or a sweeper
type ClosableLocker interface {
	billing.InvoiceLocker
	io.Closer
}

// ErrRedisRequired is returned by OpenLocker when Redis is configured but
// unreachable and RequireRedis is set.
var ErrRedisRequired = errors.New("redis invoice locks required but redis is unavailable")

// LockerOptions tune OpenLocker. A zero TTL uses DefaultLockTTL.
type LockerOptions struct {
	TTL          time.Duration
	RequireRedis bool
	Logger       *zap.Logger
}

// OpenLocker picks the invoice lock backend. Redis is used whenever it is
// configured and answers a ping. Otherwise locks are process-local, which is
// only safe with a single reminder scheduler, so RequireRedis turns an
// unreachable Redis into an error instead.
func OpenLocker(redisCfg config.RedisConfig, opts LockerOptions) (ClosableLocker, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	if !redisCfg.Enabled() {
		log.Info("Invoice locks are process-local; redis is not configured")
		return NewInMemoryInvoiceLocker(ttl), nil
	}

	locker, err := NewRedisInvoiceLocker(RedisConfig{
		Host:     redisCfg.Host,
		Port:     redisCfg.Port,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}, ttl, log)
	switch {
	case err == nil:
		log.Info("Invoice locks held in redis", zap.String("addr", redisCfg.Addr()))
		return locker, nil
	case opts.RequireRedis:
		return nil, fmt.Errorf("%w: %w", ErrRedisRequired, err)
	}
	log.Warn("Redis unreachable, invoice locks are process-local until restart",
		zap.String("addr", redisCfg.Addr()),
		zap.Error(err),
	)
	return NewInMemoryInvoiceLocker(ttl), nil
}
