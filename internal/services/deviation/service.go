package deviationservice

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
	"volguard/internal/events"
	"volguard/internal/locks"
	"volguard/internal/metrics"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// RepoFactory builds transaction-scoped repositories
type RepoFactory interface {
	Deviations(tx *sqlx.Tx) deviation.Repository
}

// Service orchestrates deviation monitoring: compares the current
// quote window against the previous one, persists the records and
// raises alerts for anomalous contracts.
type Service struct {
	detector  *Detector
	quotes    option.Repository
	records   deviation.Repository
	tx        TxRunner
	repos     RepoFactory
	publisher events.Publisher
	locks     *locks.KeyLock
	log       *logger.Logger
}

// NewService creates a new deviation service
func NewService(
	detector *Detector,
	quotes option.Repository,
	records deviation.Repository,
	tx TxRunner,
	repos RepoFactory,
	publisher events.Publisher,
	keyLocks *locks.KeyLock,
) *Service {
	return &Service{
		detector:  detector,
		quotes:    quotes,
		records:   records,
		tx:        tx,
		repos:     repos,
		publisher: publisher,
		locks:     keyLocks,
		log:       logger.Get().With("service", "deviation"),
	}
}

// ComputeDeviations runs one deviation computation for a symbol and
// period, comparing [now-p, now) against [now-2p, now-p).
func (s *Service) ComputeDeviations(ctx context.Context, symbol string, period option.Period) ([]deviation.Record, error) {
	var records []deviation.Record
	var anomalies []*deviation.Alert
	anomalyRecords := make(map[string]*deviation.Record)

	err := s.locks.Do("deviation:"+symbol+":"+period.String(), func() error {
		now := time.Now().UTC()
		windowStart := now.Add(-period.Duration())
		previousStart := now.Add(-2 * period.Duration())

		current, err := s.quotes.GetWindow(ctx, symbol, windowStart, now)
		if err != nil {
			return errors.Wrapf(err, "load current window: symbol=%s period=%s", symbol, period)
		}

		previous, err := s.quotes.GetWindow(ctx, symbol, previousStart, windowStart)
		if err != nil {
			return errors.Wrapf(err, "load previous window: symbol=%s period=%s", symbol, period)
		}

		marketPrice, err := s.quotes.GetLatestUnderlyingPrice(ctx, symbol)
		if errors.Is(err, errors.ErrNoQuoteData) {
			s.log.Debugf("No quote data for deviation run: symbol=%s period=%s", symbol, period)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "load underlying price")
		}

		records = s.detector.Detect(symbol, period, current, previous, marketPrice, now)
		if len(records) == 0 {
			return nil
		}

		return s.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			repo := s.repos.Deviations(tx)

			if err := repo.InsertRecords(ctx, records); err != nil {
				return err
			}

			for i := range records {
				if !records[i].IsAnomaly {
					continue
				}

				a := BuildAlert(&records[i], now)
				if err := repo.InsertAlert(ctx, a); err != nil {
					return err
				}
				anomalies = append(anomalies, a)
				anomalyRecords[a.ID.String()] = &records[i]
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for _, a := range anomalies {
		metrics.DeviationAnomalies.WithLabelValues(a.Symbol, a.Period.String(), a.Level.String()).Inc()
		s.publisher.PublishDeviationAlert(ctx, a, anomalyRecords[a.ID.String()])
	}

	if len(records) > 0 {
		s.log.Infof("Deviation run complete: symbol=%s period=%s records=%d anomalies=%d",
			symbol, period, len(records), len(anomalies))
	}

	return records, nil
}

// GetRecords returns stored records matching the filter
func (s *Service) GetRecords(ctx context.Context, filter deviation.Filter) ([]deviation.Record, error) {
	return s.records.GetRecords(ctx, filter)
}

// GetAlerts returns deviation alerts for a symbol and period
func (s *Service) GetAlerts(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]deviation.Alert, error) {
	return s.records.GetAlerts(ctx, symbol, period, from, to)
}

// AcknowledgeAlert marks a deviation alert acknowledged
func (s *Service) AcknowledgeAlert(ctx context.Context, id string) error {
	return s.records.AcknowledgeAlert(ctx, id)
}
