package analytics

import (
	"context"
	"time"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
	"volguard/internal/workers"
)

// CleanupWorker enforces the retention window across all stores
type CleanupWorker struct {
	*workers.BaseWorker
	quotes     option.Repository
	snapshots  risk.Repository
	deviations deviation.Repository
	retention  time.Duration
}

// NewCleanupWorker creates a new retention worker
func NewCleanupWorker(
	quotes option.Repository,
	snapshots risk.Repository,
	deviations deviation.Repository,
	retention time.Duration,
	interval time.Duration,
	enabled bool,
) *CleanupWorker {
	return &CleanupWorker{
		BaseWorker: workers.NewBaseWorker("cleanup", interval, enabled),
		quotes:     quotes,
		snapshots:  snapshots,
		deviations: deviations,
		retention:  retention,
	}
}

// Run removes rows older than the retention cutoff. Each store is
// cleaned independently; a failure in one does not block the others.
func (w *CleanupWorker) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.retention)

	if err := w.quotes.DeleteOlderThan(ctx, cutoff); err != nil {
		w.Log().Error("Quote cleanup failed", "error", err)
	}

	snapshots, err := w.snapshots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.Log().Error("Snapshot cleanup failed", "error", err)
	}

	records, err := w.deviations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.Log().Error("Deviation cleanup failed", "error", err)
	}

	w.Log().Info("Retention cleanup complete",
		"cutoff", cutoff,
		"snapshots_removed", snapshots,
		"deviation_records_removed", records,
	)

	return nil
}
