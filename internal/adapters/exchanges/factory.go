package exchanges

import (
	"net/http"
	"sort"

	"volguard/internal/adapters/exchanges/ratelimit"
	"volguard/pkg/errors"
)

// Builder constructs a quote source given an http client and limiter.
type Builder func(httpClient *http.Client, limiter *ratelimit.Limiter) Source

// registry is a static set of configured quote sources.
type registry struct {
	sources map[string]Source
}

// NewRegistry builds sources for the configured exchange names.
// Unknown names return an error so a bad config fails at startup
// rather than silently monitoring fewer venues.
func NewRegistry(names []string, builders map[string]Builder, httpClient *http.Client, requestsPerSecond float64) (Registry, error) {
	sources := make(map[string]Source, len(names))
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownExchange, "%q", name)
		}
		sources[name] = build(httpClient, ratelimit.NewLimiter(name, requestsPerSecond))
	}
	return &registry{sources: sources}, nil
}

func (r *registry) Get(exchange string) (Source, error) {
	src, ok := r.sources[exchange]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownExchange, "%q", exchange)
	}
	return src, nil
}

func (r *registry) List() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
