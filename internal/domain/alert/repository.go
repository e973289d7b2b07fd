package alert

import (
	"context"

	"volguard/internal/domain/option"
)

// Repository defines the interface for alert and threshold data access
type Repository interface {
	// GetThreshold returns the threshold row for (indicator, period),
	// or ErrNotFound if none exists
	GetThreshold(ctx context.Context, indicator Indicator, period option.Period) (*Threshold, error)

	// UpsertThreshold creates or replaces a threshold row
	UpsertThreshold(ctx context.Context, threshold *Threshold) error

	// ListThresholds returns all threshold rows
	ListThresholds(ctx context.Context) ([]Threshold, error)

	// InsertAlert appends an alert
	InsertAlert(ctx context.Context, alert *Alert) error

	// HasUnacknowledged reports whether an unacknowledged alert already
	// exists for (symbol, indicator, period, tier)
	HasUnacknowledged(ctx context.Context, symbol string, indicator Indicator, period option.Period, tier Tier) (bool, error)

	// GetUnacknowledged returns all open alerts for a symbol
	GetUnacknowledged(ctx context.Context, symbol string) ([]Alert, error)

	// AcknowledgeAlert marks an alert acknowledged by id. One-way.
	AcknowledgeAlert(ctx context.Context, id string) error
}
