package scheduler

import "errors"

// Sentinel errors returned by the reminder worker pool and cron trigger
var (
	ErrPoolStopped   = errors.New("reminder worker pool is stopped")
	ErrJobQueueFull  = errors.New("reminder job queue is full")
	ErrInvalidConfig = errors.New("invalid reminder scheduler configuration")
)
