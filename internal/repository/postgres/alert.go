package postgres

import (
	"context"
	"database/sql"

	"volguard/pkg/errors"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/option"
)

// Compile-time check
var _ alert.Repository = (*AlertRepository)(nil)

// AlertRepository implements alert.Repository using sqlx
type AlertRepository struct {
	db DBTX
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

// GetThreshold returns the threshold row for (indicator, period)
func (r *AlertRepository) GetThreshold(ctx context.Context, indicator alert.Indicator, period option.Period) (*alert.Threshold, error) {
	var threshold alert.Threshold

	query := `SELECT * FROM alert_thresholds WHERE indicator = $1 AND period = $2`

	err := r.db.GetContext(ctx, &threshold, query, indicator, period)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get alert threshold")
	}

	return &threshold, nil
}

// UpsertThreshold creates or replaces the threshold row for (indicator, period)
func (r *AlertRepository) UpsertThreshold(ctx context.Context, threshold *alert.Threshold) error {
	query := `
		INSERT INTO alert_thresholds (
			id, indicator, period, attention, warning, severe, is_enabled, updated_at
		) VALUES (
			:id, :indicator, :period, :attention, :warning, :severe, :is_enabled, :updated_at
		)
		ON CONFLICT (indicator, period) DO UPDATE SET
			attention = EXCLUDED.attention,
			warning = EXCLUDED.warning,
			severe = EXCLUDED.severe,
			is_enabled = EXCLUDED.is_enabled,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, threshold)
	return errors.Wrap(err, "upsert alert threshold")
}

// ListThresholds returns all threshold rows
func (r *AlertRepository) ListThresholds(ctx context.Context) ([]alert.Threshold, error) {
	var thresholds []alert.Threshold

	query := `SELECT * FROM alert_thresholds ORDER BY indicator, period`

	if err := r.db.SelectContext(ctx, &thresholds, query); err != nil {
		return nil, errors.Wrap(err, "list alert thresholds")
	}

	return thresholds, nil
}

// InsertAlert appends an alert row
func (r *AlertRepository) InsertAlert(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO risk_alerts (
			id, symbol, indicator, period, tier, value, acknowledged, created_at
		) VALUES (
			:id, :symbol, :indicator, :period, :tier, :value, :acknowledged, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, a)
	return errors.Wrap(err, "insert risk alert")
}

// HasUnacknowledged reports whether an open alert already exists for
// (symbol, indicator, period, tier)
func (r *AlertRepository) HasUnacknowledged(ctx context.Context, symbol string, indicator alert.Indicator, period option.Period, tier alert.Tier) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM risk_alerts
			WHERE symbol = $1 AND indicator = $2 AND period = $3 AND tier = $4
			  AND acknowledged = false
		)`

	err := r.db.GetContext(ctx, &exists, query, symbol, indicator, period, tier)
	if err != nil {
		return false, errors.Wrap(err, "check unacknowledged alerts")
	}

	return exists, nil
}

// GetUnacknowledged returns all open alerts for a symbol
func (r *AlertRepository) GetUnacknowledged(ctx context.Context, symbol string) ([]alert.Alert, error) {
	var alerts []alert.Alert

	query := `
		SELECT * FROM risk_alerts
		WHERE symbol = $1 AND acknowledged = false
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &alerts, query, symbol); err != nil {
		return nil, errors.Wrap(err, "get unacknowledged alerts")
	}

	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged by id. One-way.
func (r *AlertRepository) AcknowledgeAlert(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE risk_alerts SET acknowledged = true WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "acknowledge risk alert")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.ErrAlertNotFound
	}

	return nil
}
