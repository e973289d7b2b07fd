package alertsservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/option"
	"volguard/internal/metrics"
)

// Gate checks indicator values against per-period thresholds and creates
// alerts, suppressing duplicates while an earlier alert for the same
// (symbol, indicator, period, tier) stays unacknowledged.
type Gate struct {
	repo alert.Repository
	log  *logger.Logger
}

// NewGate creates a threshold gate
func NewGate(repo alert.Repository, log *logger.Logger) *Gate {
	return &Gate{
		repo: repo,
		log:  log.With("component", "alert_gate"),
	}
}

// Check evaluates value against the threshold row for (indicator, period),
// lazily seeding the row from defaults on first use. The most severe
// matching tier wins. Returns the created alert, or nil when no tier
// matched or a duplicate was suppressed.
func (g *Gate) Check(ctx context.Context, symbol string, indicator alert.Indicator, value float64, period option.Period) (*alert.Alert, error) {
	threshold, err := g.loadOrSeed(ctx, indicator, period)
	if err != nil {
		return nil, err
	}
	if !threshold.IsEnabled {
		return nil, nil
	}

	tier, matched := matchTier(threshold, value)
	if !matched {
		return nil, nil
	}

	exists, err := g.repo.HasUnacknowledged(ctx, symbol, indicator, period, tier)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing alerts")
	}
	if exists {
		metrics.AlertsSuppressed.WithLabelValues(symbol, string(indicator)).Inc()
		g.log.Debugf("Suppressed duplicate %s alert for %s %s (%s)", tier, symbol, indicator, period)
		return nil, nil
	}

	a := &alert.Alert{
		ID:        uuid.New(),
		Symbol:    symbol,
		Indicator: indicator,
		Period:    period,
		Tier:      tier,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.repo.InsertAlert(ctx, a); err != nil {
		return nil, errors.Wrap(err, "failed to insert alert")
	}

	g.log.Infof("Raised %s alert: %s %s=%.4f crossed %s threshold (%s)",
		tier, symbol, indicator, value, tier, period)
	return a, nil
}

// UpdateThreshold validates and stores a threshold row
func (g *Gate) UpdateThreshold(ctx context.Context, threshold *alert.Threshold) error {
	if !threshold.Period.Valid() {
		return errors.Wrapf(errors.ErrInvalidPeriod, "period %q", threshold.Period)
	}
	if err := threshold.Validate(); err != nil {
		return err
	}
	threshold.UpdatedAt = time.Now().UTC()
	return g.repo.UpsertThreshold(ctx, threshold)
}

// loadOrSeed fetches the threshold row, creating it from defaults when
// the indicator has never been checked for this period
func (g *Gate) loadOrSeed(ctx context.Context, indicator alert.Indicator, period option.Period) (*alert.Threshold, error) {
	threshold, err := g.repo.GetThreshold(ctx, indicator, period)
	if err == nil {
		return threshold, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to load threshold")
	}

	bounds, ok := alert.DefaultThresholds[indicator]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no default thresholds for indicator %q", indicator)
	}

	threshold = &alert.Threshold{
		ID:        uuid.New(),
		Indicator: indicator,
		Period:    period,
		Attention: bounds.Attention,
		Warning:   bounds.Warning,
		Severe:    bounds.Severe,
		IsEnabled: true,
		UpdatedAt: time.Now().UTC(),
	}
	if err := g.repo.UpsertThreshold(ctx, threshold); err != nil {
		return nil, errors.Wrap(err, "failed to seed threshold")
	}
	return threshold, nil
}

// matchTier checks bounds from most to least severe
func matchTier(t *alert.Threshold, value float64) (alert.Tier, bool) {
	switch {
	case value >= t.Severe:
		return alert.TierSevere, true
	case value >= t.Warning:
		return alert.TierWarning, true
	case value >= t.Attention:
		return alert.TierAttention, true
	default:
		return "", false
	}
}
