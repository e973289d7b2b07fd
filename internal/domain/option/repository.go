package option

import (
	"context"
	"time"
)

// Repository defines the interface for quote data access
type Repository interface {
	// InsertQuotes appends a batch of quotes
	InsertQuotes(ctx context.Context, quotes []Quote) error

	// GetWindow returns all quotes for a symbol within [from, to)
	GetWindow(ctx context.Context, symbol string, from, to time.Time) ([]Quote, error)

	// GetLatestUnderlyingPrice returns the most recent underlying price
	// observed for a symbol, or ErrNoQuoteData if none exists
	GetLatestUnderlyingPrice(ctx context.Context, symbol string) (float64, error)

	// DeleteOlderThan removes quotes older than the cutoff and returns
	// the affected row estimate
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}
