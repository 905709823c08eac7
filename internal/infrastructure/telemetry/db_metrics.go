package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics records query counts, latency and connection pool usage
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	slowThreshold  time.Duration
	registration   metric.Registration
}

// NewDBMetrics creates the query instruments and, when sqlDB is given, an
// observable gauge reporting pool state on every collection.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, slowThreshold time.Duration) (*DBMetrics, error) {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	queryTotal, err := NewCounter(meter, "db_query_total", "Total number of database queries by operation type", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	slowQueryTotal, err := NewCounter(meter, "db_slow_query_total", "Total number of slow database queries", "{query}")
	if err != nil {
		return nil, err
	}

	m := &DBMetrics{
		queryTotal:     queryTotal,
		queryDuration:  queryDuration,
		slowQueryTotal: slowQueryTotal,
		slowThreshold:  slowThreshold,
	}

	if sqlDB != nil {
		pool, err := meter.Int64ObservableGauge("db_pool_connections",
			metric.WithDescription("Number of connections in the pool by state"),
			metric.WithUnit("{connection}"),
		)
		if err != nil {
			return nil, err
		}
		m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			stats := sqlDB.Stats()
			o.ObserveInt64(pool, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
			o.ObserveInt64(pool, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
			o.ObserveInt64(pool, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
			o.ObserveInt64(pool, int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
			return nil
		}, pool)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordQuery records one finished statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.slowThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// Stop unregisters the pool callback
func (m *DBMetrics) Stop() {
	if m.registration != nil {
		_ = m.registration.Unregister()
	}
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", markQueryStart, func(tx *gorm.DB, op string) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		elapsed, _ := queryElapsed(ctx)
		m.RecordQuery(ctx, op, tx.Statement.Table, elapsed)
	})
}

// RegisterDBMetrics installs DBMetrics on db when the meter provider exports
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, slowThreshold time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		return nil, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), sqlDB, slowThreshold)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		m.Stop()
		return nil, err
	}

	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", m.slowThreshold))
	return m, nil
}

func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}
