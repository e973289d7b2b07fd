package analytics

import (
	"context"
	"sync"
	"time"

	"volguard/internal/domain/option"
	deviationservice "volguard/internal/services/deviation"
	"volguard/internal/workers"
)

// DeviationWorker runs strike deviation monitoring for every tracked
// symbol and monitored period on each tick.
type DeviationWorker struct {
	*workers.BaseWorker
	deviations  *deviationservice.Service
	symbols     []string
	concurrency int
}

// NewDeviationWorker creates a new deviation monitoring worker
func NewDeviationWorker(deviations *deviationservice.Service, symbols []string, interval time.Duration, concurrency int, enabled bool) *DeviationWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &DeviationWorker{
		BaseWorker:  workers.NewBaseWorker("deviation_monitor", interval, enabled),
		deviations:  deviations,
		symbols:     symbols,
		concurrency: concurrency,
	}
}

// Run executes one monitoring sweep with per-pair failure isolation
func (w *DeviationWorker) Run(ctx context.Context) error {
	start := time.Now()
	periods := option.MonitoredPeriods()

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for _, symbol := range w.symbols {
		for _, period := range periods {
			wg.Add(1)
			sem <- struct{}{}

			go func(symbol string, period option.Period) {
				defer wg.Done()
				defer func() { <-sem }()

				if _, err := w.deviations.ComputeDeviations(ctx, symbol, period); err != nil {
					w.Log().Error("Deviation computation failed",
						"symbol", symbol,
						"period", period,
						"error", err,
					)
				}
			}(symbol, period)
		}
	}

	wg.Wait()

	w.Log().Debug("Deviation sweep complete",
		"symbols", len(w.symbols),
		"periods", len(periods),
		"duration", time.Since(start),
	)

	return nil
}
