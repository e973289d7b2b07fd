package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"volguard/pkg/errors"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
)

// Compile-time check
var _ deviation.Repository = (*DeviationRepository)(nil)

// DeviationRepository implements deviation.Repository using sqlx
type DeviationRepository struct {
	db DBTX
}

// NewDeviationRepository creates a new deviation repository
func NewDeviationRepository(db DBTX) *DeviationRepository {
	return &DeviationRepository{db: db}
}

// InsertRecords appends a batch of deviation records
func (r *DeviationRepository) InsertRecords(ctx context.Context, records []deviation.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO deviation_records (
			id, symbol, period, exchange, timestamp,
			option_type, strike, expiry,
			market_price, deviation_percent,
			volume, volume_change_percent,
			premium, premium_change_percent, price_change_percent,
			is_anomaly, anomaly_level, created_at
		) VALUES (
			:id, :symbol, :period, :exchange, :timestamp,
			:option_type, :strike, :expiry,
			:market_price, :deviation_percent,
			:volume, :volume_change_percent,
			:premium, :premium_change_percent, :price_change_percent,
			:is_anomaly, :anomaly_level, :created_at
		)`

	for i := range records {
		if _, err := r.db.NamedExecContext(ctx, query, &records[i]); err != nil {
			return errors.Wrap(err, "insert deviation record")
		}
	}

	return nil
}

// InsertAlert appends an alert derived from an anomalous record
func (r *DeviationRepository) InsertAlert(ctx context.Context, alert *deviation.Alert) error {
	query := `
		INSERT INTO deviation_alerts (
			id, record_id, symbol, period, level, trigger_reason, acknowledged, created_at
		) VALUES (
			:id, :record_id, :symbol, :period, :level, :trigger_reason, :acknowledged, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, alert)
	return errors.Wrap(err, "insert deviation alert")
}

// GetRecords returns records matching the filter ordered by timestamp
func (r *DeviationRepository) GetRecords(ctx context.Context, filter deviation.Filter) ([]deviation.Record, error) {
	conditions := []string{"symbol = $1", "period = $2", "timestamp >= $3", "timestamp < $4"}
	args := []interface{}{filter.Symbol, filter.Period, filter.From, filter.To}

	if filter.Exchange != "" {
		args = append(args, filter.Exchange)
		conditions = append(conditions, fmt.Sprintf("exchange = $%d", len(args)))
	}
	if filter.OptionType != "" {
		args = append(args, filter.OptionType)
		conditions = append(conditions, fmt.Sprintf("option_type = $%d", len(args)))
	}
	if filter.MinVolumeChange != nil {
		args = append(args, *filter.MinVolumeChange)
		conditions = append(conditions, fmt.Sprintf("abs(coalesce(volume_change_percent, 0)) >= $%d", len(args)))
	}
	if filter.AnomaliesOnly {
		conditions = append(conditions, "is_anomaly = true")
	}

	query := fmt.Sprintf(`
		SELECT * FROM deviation_records
		WHERE %s
		ORDER BY timestamp ASC`, strings.Join(conditions, " AND "))

	var records []deviation.Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, errors.Wrap(err, "get deviation records")
	}

	return records, nil
}

// GetAlerts returns alerts for a symbol and period within [from, to)
func (r *DeviationRepository) GetAlerts(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]deviation.Alert, error) {
	var alerts []deviation.Alert

	query := `
		SELECT * FROM deviation_alerts
		WHERE symbol = $1 AND period = $2
		  AND created_at >= $3 AND created_at < $4
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &alerts, query, symbol, period, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "get deviation alerts")
	}

	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged. One-way.
func (r *DeviationRepository) AcknowledgeAlert(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deviation_alerts SET acknowledged = true WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "acknowledge deviation alert")
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

// DeleteOlderThan removes records and their alerts older than the cutoff
func (r *DeviationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM deviation_alerts WHERE created_at < $1`, cutoff); err != nil {
		return 0, errors.Wrap(err, "delete old deviation alerts")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM deviation_records WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "delete old deviation records")
	}

	return res.RowsAffected()
}
