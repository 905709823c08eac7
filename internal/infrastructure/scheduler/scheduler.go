package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one unit of reminder work: evaluate a single invoice
type Job struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	InvoiceID   uuid.UUID
	Trigger     string
	SubmittedAt time.Time
}

// NewJob creates a job for an invoice
func NewJob(tenantID, invoiceID uuid.UUID, trigger string) *Job {
	return &Job{
		ID:          uuid.New(),
		TenantID:    tenantID,
		InvoiceID:   invoiceID,
		Trigger:     trigger,
		SubmittedAt: time.Now(),
	}
}

// JobExecutor runs a job
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls f
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// PoolConfig holds worker pool configuration
type PoolConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultPoolConfig returns default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:    4,
		QueueSize:  1000,
		JobTimeout: 2 * time.Minute,
	}
}

// Validate checks the pool configuration
func (c PoolConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// PoolStats is a snapshot of pool counters
type PoolStats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Rejected  int64
	Queued    int
}

// WorkerPool executes jobs on a fixed number of goroutines fed by a bounded queue
type WorkerPool struct {
	config   PoolConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// NewWorkerPool creates a new pool
func NewWorkerPool(config PoolConfig, executor JobExecutor, logger *zap.Logger) (*WorkerPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
	}, nil
}

// Start starts the workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}
	p.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Reminder worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize),
		zap.Duration("job_timeout", p.config.JobTimeout),
	)
	return nil
}

// Stop stops accepting jobs, lets workers drain the queue and waits for them
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Reminder worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		// abandon queued jobs; in-flight jobs see their context cancelled
		p.cancel()
		p.logger.Warn("Reminder worker pool stop timed out", zap.Int("abandoned", len(p.jobs)))
		return ctx.Err()
	}
}

// Submit enqueues a job without blocking
func (p *WorkerPool) Submit(job *Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.isRunning {
		return ErrPoolStopped
	}

	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrJobQueueFull
	}
}

// Stats returns current counters
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		Queued:    len(p.jobs),
	}
}

func (p *WorkerPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.processJob(ctx, job, workerID)
	}
}

func (p *WorkerPool) processJob(ctx context.Context, job *Job, workerID int) {
	if ctx.Err() != nil {
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.logger.Error("Reminder job panicked",
				zap.Int("worker_id", workerID),
				zap.String("invoice_id", job.InvoiceID.String()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := p.executor.Execute(jobCtx, job); err != nil {
		p.failed.Add(1)
		p.logger.Error("Reminder job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("invoice_id", job.InvoiceID.String()),
			zap.String("trigger", job.Trigger),
			zap.Error(err),
		)
		return
	}
	p.completed.Add(1)
}
