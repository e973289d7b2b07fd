package workers

import (
	"context"
	"time"

	"volguard/pkg/logger"
)

// Worker is one periodic background task. Run completes a single
// iteration; the scheduler re-invokes it every Interval.
type Worker interface {
	// Name returns the unique identifier for this worker
	Name() string

	// Run executes one iteration of work
	Run(ctx context.Context) error

	// Interval returns how often this worker should run
	Interval() time.Duration

	// Enabled returns whether this worker is active
	Enabled() bool
}

// BaseWorker carries the identity and cadence shared by all workers.
// Execution stats (runs, errors, duration, last run) are recorded as
// prometheus metrics by the scheduler, not tracked here.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

// Name returns the worker name
func (w *BaseWorker) Name() string {
	return w.name
}

// Interval returns the run interval
func (w *BaseWorker) Interval() time.Duration {
	return w.interval
}

// Enabled returns whether the worker is enabled
func (w *BaseWorker) Enabled() bool {
	return w.enabled
}

// Log returns the worker-scoped logger
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}
