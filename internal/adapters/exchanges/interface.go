package exchanges

import (
	"context"
)

// Source defines the contract each exchange adapter must satisfy.
// A failed fetch means "no data for this run", never a process crash.
type Source interface {
	Name() string

	// FetchOptionQuotes returns all live option quotes for an underlying
	FetchOptionQuotes(ctx context.Context, symbol string) ([]RawQuote, error)

	// GetUnderlyingPrice returns the current index price of the underlying
	GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error)
}

// Registry resolves configured exchange adapters by name
type Registry interface {
	Get(exchange string) (Source, error)
	List() []string
}
