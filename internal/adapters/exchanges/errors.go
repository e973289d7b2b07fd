package exchanges

import "errors"

var (
	// ErrUnknownExchange is returned by the registry for unconfigured names.
	ErrUnknownExchange = errors.New("unknown exchange")

	// ErrRateLimited indicates HTTP 429 or throttling.
	ErrRateLimited = errors.New("exchange rate limited the request")

	// ErrNoData indicates the exchange returned an empty or unusable payload.
	ErrNoData = errors.New("exchange returned no data")
)
