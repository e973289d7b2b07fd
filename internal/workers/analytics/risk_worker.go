package analytics

import (
	"context"
	"sync"
	"time"

	"volguard/internal/domain/option"
	riskservice "volguard/internal/services/risk"
	"volguard/internal/workers"
)

// RiskWorker computes risk snapshots for every tracked symbol and
// monitored period on each tick.
type RiskWorker struct {
	*workers.BaseWorker
	risk        *riskservice.Service
	symbols     []string
	concurrency int
}

// NewRiskWorker creates a new risk computation worker
func NewRiskWorker(risk *riskservice.Service, symbols []string, interval time.Duration, concurrency int, enabled bool) *RiskWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RiskWorker{
		BaseWorker:  workers.NewBaseWorker("risk_computer", interval, enabled),
		risk:        risk,
		symbols:     symbols,
		concurrency: concurrency,
	}
}

// Run executes one computation sweep. Failures are isolated per
// (symbol, period) pair.
func (w *RiskWorker) Run(ctx context.Context) error {
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

				if _, err := w.risk.ComputeSnapshot(ctx, symbol, period); err != nil {
					w.Log().Error("Risk computation failed",
						"symbol", symbol,
						"period", period,
						"error", err,
					)
				}
			}(symbol, period)
		}
	}

	wg.Wait()

	w.Log().Debug("Risk sweep complete",
		"symbols", len(w.symbols),
		"periods", len(periods),
		"duration", time.Since(start),
	)

	return nil
}
