package quotesservice

import (
	"context"
	"time"

	"volguard/pkg/logger"

	"volguard/internal/adapters/exchanges"
	"volguard/internal/domain/option"
	"volguard/internal/metrics"
)

// Service pulls option quotes from every configured exchange,
// normalizes them and feeds the quote store.
type Service struct {
	registry   exchanges.Registry
	normalizer *exchanges.Normalizer
	quotes     option.Repository
	log        *logger.Logger
}

// NewService creates a new quote ingestion service
func NewService(registry exchanges.Registry, normalizer *exchanges.Normalizer, quotes option.Repository) *Service {
	return &Service{
		registry:   registry,
		normalizer: normalizer,
		quotes:     quotes,
		log:        logger.Get().With("service", "quotes"),
	}
}

// Ingest fetches and stores quotes for one symbol across all exchanges.
// A failing exchange is logged and skipped so one venue outage does not
// stall the rest.
func (s *Service) Ingest(ctx context.Context, symbol string) (int, error) {
	total := 0

	for _, name := range s.registry.List() {
		accepted, err := s.ingestExchange(ctx, name, symbol)
		if err != nil {
			s.log.Errorf("Quote ingestion failed: exchange=%s symbol=%s: %v", name, symbol, err)
			continue
		}
		total += accepted
	}

	return total, nil
}

func (s *Service) ingestExchange(ctx context.Context, exchange, symbol string) (int, error) {
	src, err := s.registry.Get(exchange)
	if err != nil {
		return 0, err
	}

	raws, err := src.FetchOptionQuotes(ctx, symbol)
	metrics.RecordExchangeCall(exchange, err)
	if err != nil {
		return 0, err
	}

	quotes, rejections := s.normalizer.Normalize(raws, time.Now().UTC())

	for _, rej := range rejections {
		metrics.QuotesRejected.WithLabelValues(rej.Exchange, rej.Reason).Inc()
		s.log.Warnf("Quote rejected: exchange=%s contract=%s reason=%s",
			rej.Exchange, rej.Contract, rej.Reason)
	}

	if len(quotes) == 0 {
		return 0, nil
	}

	if err := s.quotes.InsertQuotes(ctx, quotes); err != nil {
		return 0, err
	}

	metrics.QuotesIngested.WithLabelValues(exchange, symbol).Add(float64(len(quotes)))
	s.log.Debugf("Ingested quotes: exchange=%s symbol=%s accepted=%d rejected=%d",
		exchange, symbol, len(quotes), len(rejections))

	return len(quotes), nil
}
