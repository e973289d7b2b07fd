package reportservice

import (
	"context"
	"fmt"
	"time"

	"volguard/pkg/logger"

	redisrepo "volguard/internal/repository/redis"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
)

// Report is the full analytics payload for a symbol and period
type Report struct {
	Symbol      string        `json:"symbol"`
	Period      option.Period `json:"period"`
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	GeneratedAt time.Time     `json:"generated_at"`

	Summary                 SummaryStats         `json:"summary"`
	DeviationDistribution   []DistributionBucket `json:"deviation_distribution"`
	VolumeChangeDistribution []DistributionBucket `json:"volume_change_distribution"`
	Trend                   []TrendPoint         `json:"trend"`
}

// Service assembles analytics reports over stored deviation records and
// risk snapshots, with a short-TTL cache in front of the aggregations.
type Service struct {
	aggregator *Aggregator
	records    deviation.Repository
	snapshots  risk.Repository
	cache      *redisrepo.ReportCache
	exchanges  []string
	log        *logger.Logger
}

// NewService creates a new report service. cache may be nil.
func NewService(
	aggregator *Aggregator,
	records deviation.Repository,
	snapshots risk.Repository,
	cache *redisrepo.ReportCache,
	exchanges []string,
) *Service {
	return &Service{
		aggregator: aggregator,
		records:    records,
		snapshots:  snapshots,
		cache:      cache,
		exchanges:  exchanges,
		log:        logger.Get().With("service", "report"),
	}
}

// BuildReport assembles the summary, distributions and trend for a
// symbol and period within [from, to).
func (s *Service) BuildReport(ctx context.Context, symbol string, period option.Period, from, to time.Time) (*Report, error) {
	cacheKey := fmt.Sprintf("%s:%s:%d:%d", symbol, period, from.Unix(), to.Unix())

	if s.cache != nil {
		var cached Report
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warnf("Report cache read failed: %v", err)
		}
		if hit {
			return &cached, nil
		}
	}

	records, err := s.records.GetRecords(ctx, deviation.Filter{
		Symbol: symbol,
		Period: period,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Symbol:      symbol,
		Period:      period,
		From:        from,
		To:          to,
		GeneratedAt: time.Now().UTC(),

		Summary:                  s.aggregator.Summary(records),
		DeviationDistribution:    s.aggregator.DeviationDistribution(records),
		VolumeChangeDistribution: s.aggregator.VolumeChangeDistribution(records),
		Trend:                    s.aggregator.Trend(records),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report); err != nil {
			s.log.Warnf("Report cache write failed: %v", err)
		}
	}

	return report, nil
}

// CompareExchanges contrasts per-exchange activity in [from, to)
// against the preceding window of equal length.
func (s *Service) CompareExchanges(ctx context.Context, symbol string, period option.Period, from, to time.Time) (*ExchangeComparison, error) {
	current, err := s.records.GetRecords(ctx, deviation.Filter{
		Symbol: symbol,
		Period: period,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}

	span := to.Sub(from)
	prior, err := s.records.GetRecords(ctx, deviation.Filter{
		Symbol: symbol,
		Period: period,
		From:   from.Add(-span),
		To:     from,
	})
	if err != nil {
		return nil, err
	}

	comparison := s.aggregator.CompareExchanges(s.exchanges, current, prior)
	return &comparison, nil
}

// SnapshotSeries returns risk snapshots for charting
func (s *Service) SnapshotSeries(ctx context.Context, symbol string, period option.Period, from, to time.Time) ([]risk.Snapshot, error) {
	return s.snapshots.GetSnapshotSeries(ctx, symbol, period, from, to)
}
