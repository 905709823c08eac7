package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hostel/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Database owns the gorm handle shared by every billing repository
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects to PostgreSQL, sizes the pool from cfg and verifies
// the connection. A nil gormLog discards gorm output.
func NewDatabase(cfg *config.DatabaseConfig, gormLog gormlogger.Interface) (*Database, error) {
	if gormLog == nil {
		gormLog = gormlogger.Discard
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(gormLog))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db := &Database{DB: gdb}

	pool, err := db.pool()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// GormConfig is used by the server and by the repository tests. Timestamps
// are generated in UTC and unique violations surface as gorm.ErrDuplicatedKey.
func GormConfig(gormLog gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLog,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap connection pool: %w", err)
	}
	return pool, nil
}

// Transaction runs fn inside a transaction bound to ctx. The transaction is
// rolled back when fn returns an error or panics.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Stats reports the connection pool counters
func (d *Database) Stats() (sql.DBStats, error) {
	pool, err := d.pool()
	if err != nil {
		return sql.DBStats{}, err
	}
	return pool.Stats(), nil
}

func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
