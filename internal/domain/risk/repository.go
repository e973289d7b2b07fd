package risk

import (
	"context"
	"time"

	"volguard/internal/domain/option"
)

// Repository defines the interface for risk snapshot data access
type Repository interface {
	// InsertSnapshot appends a snapshot
	InsertSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetLatestSnapshot returns the most recent snapshot for a symbol and
	// period, or ErrNotFound if none exists
	GetLatestSnapshot(ctx context.Context, symbol string, period option.Period) (*Snapshot, error)

	// GetSnapshotSeries returns snapshots within [from, to) ordered by
	// timestamp ascending, for charting
	GetSnapshotSeries(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]Snapshot, error)

	// DeleteOlderThan removes snapshots older than the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
