package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trigger names recorded on jobs and metrics
const (
	TriggerHourly = "hourly"
	TriggerDaily  = "daily"
	TriggerManual = "manual"
)

// ReminderEngine is the part of the reminder service the scheduler drives
type ReminderEngine interface {
	ForEachOutstanding(ctx context.Context, batchSize int, fn func(tenantID, invoiceID uuid.UUID) error) error
	ProcessInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (appbilling.ReminderOutcome, error)
}

// CronTriggerConfig holds the reminder cadences
type CronTriggerConfig struct {
	// HourlySchedule and DailySchedule are standard 5-field cron expressions
	HourlySchedule string
	DailySchedule  string
	BatchSize      int
	// SweepTimeout bounds how long one enumeration of outstanding invoices may take
	SweepTimeout time.Duration
	Location     *time.Location
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		HourlySchedule: "0 * * * *",
		DailySchedule:  "0 9 * * *",
		BatchSize:      200,
		SweepTimeout:   30 * time.Minute,
		Location:       time.UTC,
	}
}

// SweepResult summarizes one enumeration pass
type SweepResult struct {
	Trigger   string
	Submitted int
	Dropped   int
	Duration  time.Duration
}

// CronTrigger enumerates outstanding invoices on a cron cadence and feeds
// one job per invoice to the worker pool
type CronTrigger struct {
	config  CronTriggerConfig
	engine  ReminderEngine
	pool    *WorkerPool
	metrics *telemetry.BillingMetrics
	logger  *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	lastSweep map[string]SweepResult
}

// NewCronTrigger creates a new cron trigger and validates the schedules
func NewCronTrigger(
	config CronTriggerConfig,
	engine ReminderEngine,
	pool *WorkerPool,
	metrics *telemetry.BillingMetrics,
	logger *zap.Logger,
) (*CronTrigger, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultCronTriggerConfig().BatchSize
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = DefaultCronTriggerConfig().SweepTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &CronTrigger{
		config:    config,
		engine:    engine,
		pool:      pool,
		metrics:   metrics,
		logger:    logger,
		lastSweep: make(map[string]SweepResult),
	}

	t.cron = cron.New(
		cron.WithLocation(config.Location),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	for trigger, spec := range map[string]string{
		TriggerHourly: config.HourlySchedule,
		TriggerDaily:  config.DailySchedule,
	} {
		if _, err := t.cron.AddFunc(spec, t.runScheduled(trigger)); err != nil {
			return nil, fmt.Errorf("%w: %s schedule %q: %v", ErrInvalidConfig, trigger, spec, err)
		}
	}
	return t, nil
}

func (t *CronTrigger) runScheduled(trigger string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.config.SweepTimeout)
		defer cancel()
		if _, err := t.Sweep(ctx, trigger); err != nil {
			t.logger.Error("Reminder sweep failed", zap.String("trigger", trigger), zap.Error(err))
		}
	}
}

// Start starts the cron scheduler
func (t *CronTrigger) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true
	t.cron.Start()

	t.logger.Info("Reminder cron trigger started",
		zap.String("hourly_schedule", t.config.HourlySchedule),
		zap.String("daily_schedule", t.config.DailySchedule),
		zap.Int("batch_size", t.config.BatchSize),
	)
	return nil
}

// Stop stops the cron scheduler and waits for a running sweep to finish
func (t *CronTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	stopped := t.cron.Stop()
	select {
	case <-stopped.Done():
		t.logger.Info("Reminder cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep enumerates outstanding invoices once and submits a job per invoice.
// Jobs rejected by a full queue are dropped; the next sweep picks the invoice up again.
func (t *CronTrigger) Sweep(ctx context.Context, trigger string) (SweepResult, error) {
	start := time.Now()
	result := SweepResult{Trigger: trigger}

	err := t.engine.ForEachOutstanding(ctx, t.config.BatchSize, func(tenantID, invoiceID uuid.UUID) error {
		err := t.pool.Submit(NewJob(tenantID, invoiceID, trigger))
		switch {
		case err == nil:
			result.Submitted++
		case errors.Is(err, ErrJobQueueFull):
			result.Dropped++
			t.metrics.RecordJobDropped(ctx)
			t.logger.Warn("Reminder job dropped, queue full",
				zap.String("trigger", trigger),
				zap.String("invoice_id", invoiceID.String()),
			)
		default:
			return err
		}
		return nil
	})
	result.Duration = time.Since(start)
	t.metrics.RecordTick(ctx, trigger, result.Duration)

	t.mu.Lock()
	t.lastSweep[trigger] = result
	t.mu.Unlock()

	if err != nil {
		return result, err
	}
	t.logger.Info("Reminder sweep finished",
		zap.String("trigger", trigger),
		zap.Int("submitted", result.Submitted),
		zap.Int("dropped", result.Dropped),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// LastSweep returns the result of the most recent sweep for a trigger
func (t *CronTrigger) LastSweep(trigger string) (SweepResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.lastSweep[trigger]
	return r, ok
}

// NextRuns returns the next activation time of each cron entry
func (t *CronTrigger) NextRuns() []time.Time {
	entries := t.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Next)
	}
	return next
}

// NewReminderJobExecutor runs ProcessInvoice for each job
func NewReminderJobExecutor(engine ReminderEngine, logger *zap.Logger) JobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return JobExecutorFunc(func(ctx context.Context, job *Job) error {
		outcome, err := engine.ProcessInvoice(ctx, job.TenantID, job.InvoiceID)
		if err != nil {
			return err
		}
		logger.Debug("Reminder job processed",
			zap.String("invoice_id", job.InvoiceID.String()),
			zap.String("trigger", job.Trigger),
			zap.String("outcome", string(outcome)),
		)
		return nil
	})
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
