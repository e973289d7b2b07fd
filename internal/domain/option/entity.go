package option

import "time"

// Type distinguishes option contract types
type Type string

const (
	TypeCall Type = "call"
	TypePut  Type = "put"
)

// Valid checks if the option type is valid
func (t Type) Valid() bool {
	return t == TypeCall || t == TypePut
}

// String returns string representation
func (t Type) String() string {
	return string(t)
}

// Quote represents a normalized options-market quote at a point in time.
// Quotes are immutable once ingested; uniqueness is not enforced upstream,
// so readers must pick the most recent quote per contract by timestamp.
type Quote struct {
	Symbol    string    `ch:"symbol"`
	Exchange  string    `ch:"exchange"`
	Timestamp time.Time `ch:"timestamp"`

	// Contract identity
	OptionType Type      `ch:"option_type"`
	Strike     float64   `ch:"strike"`
	Expiry     time.Time `ch:"expiry"`

	// Market state
	UnderlyingPrice float64 `ch:"underlying_price"`
	OptionPrice     float64 `ch:"option_price"`
	Volume          float64 `ch:"volume"`
	OpenInterest    float64 `ch:"open_interest"`

	// Pricing
	ImpliedVolatility float64 `ch:"implied_volatility"`
	Delta             float64 `ch:"delta"`
	Gamma             float64 `ch:"gamma"`
	Theta             float64 `ch:"theta"`
	Vega              float64 `ch:"vega"`
}

// ContractKey identifies one option contract within a symbol
type ContractKey struct {
	OptionType Type
	Strike     float64
	Expiry     time.Time
}

// Key returns the contract identity of the quote
func (q *Quote) Key() ContractKey {
	return ContractKey{
		OptionType: q.OptionType,
		Strike:     q.Strike,
		Expiry:     q.Expiry,
	}
}

// TimeToExpiry returns the remaining lifetime in years at the given instant,
// floored at zero for expired contracts
func (q *Quote) TimeToExpiry(now time.Time) float64 {
	remaining := q.Expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return remaining.Hours() / (24 * 365)
}
