package deviation

import (
	"context"
	"time"

	"volguard/internal/domain/option"
)

// Filter narrows read-side record queries
type Filter struct {
	Symbol          string
	Period          option.Period
	From            time.Time
	To              time.Time
	Exchange        string      // optional
	OptionType      option.Type // optional
	MinVolumeChange *float64    // optional, absolute percent
	AnomaliesOnly   bool
}

// Repository defines the interface for deviation data access
type Repository interface {
	// InsertRecords appends a batch of records
	InsertRecords(ctx context.Context, records []Record) error

	// InsertAlert appends an alert derived from an anomalous record
	InsertAlert(ctx context.Context, alert *Alert) error

	// GetRecords returns records matching the filter ordered by timestamp
	GetRecords(ctx context.Context, filter Filter) ([]Record, error)

	// GetAlerts returns alerts for a symbol and period within [from, to)
	GetAlerts(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]Alert, error)

	// AcknowledgeAlert marks an alert acknowledged. The transition is
	// one-way; acknowledging an already acknowledged alert is a no-op.
	AcknowledgeAlert(ctx context.Context, id string) error

	// DeleteOlderThan removes records and alerts older than the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
