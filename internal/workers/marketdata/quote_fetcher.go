package marketdata

import (
	"context"
	"time"

	quotesservice "volguard/internal/services/quotes"
	"volguard/internal/workers"
)

// QuoteFetcher pulls option quotes for every tracked symbol on a short
// cadence and feeds the quote store.
type QuoteFetcher struct {
	*workers.BaseWorker
	quotes  *quotesservice.Service
	symbols []string
}

// NewQuoteFetcher creates a new quote fetch worker
func NewQuoteFetcher(quotes *quotesservice.Service, symbols []string, interval time.Duration, enabled bool) *QuoteFetcher {
	return &QuoteFetcher{
		BaseWorker: workers.NewBaseWorker("quote_fetcher", interval, enabled),
		quotes:     quotes,
		symbols:    symbols,
	}
}

// Run executes one fetch iteration. A failing symbol is logged and
// skipped so one bad underlying does not stall the rest.
func (w *QuoteFetcher) Run(ctx context.Context) error {
	start := time.Now()
	total := 0

	for _, symbol := range w.symbols {
		n, err := w.quotes.Ingest(ctx, symbol)
		if err != nil {
			w.Log().Error("Quote fetch failed", "symbol", symbol, "error", err)
			continue
		}
		total += n
	}

	w.Log().Debug("Quote fetch complete",
		"symbols", len(w.symbols),
		"quotes", total,
		"duration", time.Since(start),
	)

	return nil
}
