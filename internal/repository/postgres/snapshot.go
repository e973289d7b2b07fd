package postgres

import (
	"context"
	"database/sql"
	"time"

	"volguard/pkg/errors"

	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
)

// Compile-time check
var _ risk.Repository = (*SnapshotRepository)(nil)

// SnapshotRepository implements risk.Repository using sqlx
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new risk snapshot repository
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// InsertSnapshot appends a snapshot row
func (r *SnapshotRepository) InsertSnapshot(ctx context.Context, snapshot *risk.Snapshot) error {
	query := `
		INSERT INTO risk_snapshots (
			id, symbol, period, timestamp,
			volatility_index, volatility_skew, put_call_ratio, sentiment,
			delta_exposure, gamma_exposure, vega_exposure, theta_exposure,
			reflexivity, funding_rate, liquidation_risk, risk_level,
			created_at
		) VALUES (
			:id, :symbol, :period, :timestamp,
			:volatility_index, :volatility_skew, :put_call_ratio, :sentiment,
			:delta_exposure, :gamma_exposure, :vega_exposure, :theta_exposure,
			:reflexivity, :funding_rate, :liquidation_risk, :risk_level,
			:created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, snapshot)
	return errors.Wrap(err, "insert risk snapshot")
}

// GetLatestSnapshot returns the most recent snapshot for a symbol and period
func (r *SnapshotRepository) GetLatestSnapshot(ctx context.Context, symbol string, period option.Period) (*risk.Snapshot, error) {
	var snapshot risk.Snapshot

	query := `
		SELECT * FROM risk_snapshots
		WHERE symbol = $1 AND period = $2
		ORDER BY timestamp DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &snapshot, query, symbol, period)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get latest risk snapshot")
	}

	return &snapshot, nil
}

// GetSnapshotSeries returns snapshots within [from, to) ascending
func (r *SnapshotRepository) GetSnapshotSeries(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]risk.Snapshot, error) {
	var snapshots []risk.Snapshot

	query := `
		SELECT * FROM risk_snapshots
		WHERE symbol = $1 AND period = $2
		  AND timestamp >= $3 AND timestamp < $4
		ORDER BY timestamp ASC`

	err := r.db.SelectContext(ctx, &snapshots, query, symbol, period, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "get risk snapshot series")
	}

	return snapshots, nil
}

// DeleteOlderThan removes snapshots older than the cutoff
func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM risk_snapshots WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "delete old risk snapshots")
	}
	return res.RowsAffected()
}
