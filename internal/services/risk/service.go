package riskservice

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
	"volguard/internal/events"
	"volguard/internal/locks"
	"volguard/internal/metrics"
	alertsservice "volguard/internal/services/alerts"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// RepoFactory builds transaction-scoped repositories so the snapshot
// and any raised alerts commit atomically
type RepoFactory interface {
	Snapshots(tx *sqlx.Tx) risk.Repository
	Alerts(tx *sqlx.Tx) alert.Repository
}

// Service orchestrates risk snapshot computation: loads the quote
// window, runs the calculator, persists the snapshot and pushes the
// indicators through the alert gate.
type Service struct {
	calc      *Calculator
	quotes    option.Repository
	snapshots risk.Repository
	tx        TxRunner
	repos     RepoFactory
	publisher events.Publisher
	locks     *locks.KeyLock
	log       *logger.Logger
}

// NewService creates a new risk service
func NewService(
	calc *Calculator,
	quotes option.Repository,
	snapshots risk.Repository,
	tx TxRunner,
	repos RepoFactory,
	publisher events.Publisher,
	keyLocks *locks.KeyLock,
) *Service {
	return &Service{
		calc:      calc,
		quotes:    quotes,
		snapshots: snapshots,
		tx:        tx,
		repos:     repos,
		publisher: publisher,
		locks:     keyLocks,
		log:       logger.Get().With("service", "risk"),
	}
}

// ComputeSnapshot runs one risk computation for a symbol and period.
// Concurrent computations for the same (symbol, period) are serialized
// so the previous-snapshot read stays consistent with the insert.
func (s *Service) ComputeSnapshot(ctx context.Context, symbol string, period option.Period) (*risk.Snapshot, error) {
	var snapshot *risk.Snapshot
	var raised []*alert.Alert

	err := s.locks.Do(symbol+":"+period.String(), func() error {
		now := time.Now().UTC()
		from := now.Add(-period.Duration())

		quotes, err := s.quotes.GetWindow(ctx, symbol, from, now)
		if err != nil {
			return errors.Wrapf(err, "load quote window: symbol=%s period=%s", symbol, period)
		}

		previous, err := s.snapshots.GetLatestSnapshot(ctx, symbol, period)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return errors.Wrap(err, "load previous snapshot")
		}

		snapshot = s.calc.Compute(symbol, period, quotes, previous, now)

		return s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			if err := s.repos.Snapshots(tx).InsertSnapshot(ctx, snapshot); err != nil {
				return err
			}

			gate := alertsservice.NewGate(s.repos.Alerts(tx), s.log)
			raised, err = s.checkIndicators(ctx, gate, snapshot)
			return err
		})
	})

	metrics.RiskComputations.WithLabelValues(symbol, period.String(), statusLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.publisher.PublishRiskSnapshot(ctx, snapshot)
	for _, a := range raised {
		metrics.AlertsRaised.WithLabelValues(a.Symbol, a.Indicator.String(), a.Tier.String()).Inc()
		s.publisher.PublishThresholdAlert(ctx, a)
	}

	s.log.Infof("Risk snapshot computed: symbol=%s period=%s level=%s alerts=%d",
		symbol, period, snapshot.RiskLevel, len(raised))

	return snapshot, nil
}

// GetSeries returns snapshots for charting
func (s *Service) GetSeries(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]risk.Snapshot, error) {
	return s.snapshots.GetSnapshotSeries(ctx, symbol, period, from, to)
}

// GetLatest returns the most recent snapshot for a symbol and period
func (s *Service) GetLatest(ctx context.Context, symbol string, period option.Period) (*risk.Snapshot, error) {
	return s.snapshots.GetLatestSnapshot(ctx, symbol, period)
}

func (s *Service) checkIndicators(ctx context.Context, gate *alertsservice.Gate, snapshot *risk.Snapshot) ([]*alert.Alert, error) {
	var raised []*alert.Alert

	for indicator, value := range IndicatorValues(snapshot) {
		a, err := gate.Check(ctx, snapshot.Symbol, indicator, value, snapshot.Period)
		if err != nil {
			return nil, errors.Wrapf(err, "alert check: indicator=%s", indicator)
		}
		if a != nil {
			raised = append(raised, a)
		}
	}

	return raised, nil
}

// IndicatorValues maps a snapshot onto the thresholded indicator scale.
// The volatility index is expressed in percent; signed metrics are
// compared by magnitude.
func IndicatorValues(snapshot *risk.Snapshot) map[alert.Indicator]float64 {
	return map[alert.Indicator]float64{
		alert.IndicatorVolatilityIndex: snapshot.VolatilityIndex * 100,
		alert.IndicatorVolatilitySkew:  math.Abs(snapshot.VolatilitySkew),
		alert.IndicatorDeltaExposure:   math.Abs(snapshot.DeltaExposure),
		alert.IndicatorGammaExposure:   math.Abs(snapshot.GammaExposure),
		alert.IndicatorVegaExposure:    math.Abs(snapshot.VegaExposure),
		alert.IndicatorPutCallRatio:    snapshot.PutCallRatio,
		alert.IndicatorReflexivity:     snapshot.Reflexivity,
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
