package exchanges

import "time"

// RawQuote is one option quote as delivered by an exchange, before
// validation. Fields the exchange did not supply stay zero; the
// normalization boundary decides what that means instead of letting
// zeros leak into analytics.
type RawQuote struct {
	Exchange   string
	Symbol     string
	OptionType string
	Strike     float64
	Expiry     time.Time

	UnderlyingPrice   float64
	OptionPrice       float64
	Volume            float64
	OpenInterest      float64
	ImpliedVolatility float64

	// Greeks are optional; exchanges that omit them get model-derived
	// values during ingestion
	Delta    float64
	Gamma    float64
	Theta    float64
	Vega     float64
	HasGreek bool

	Timestamp time.Time
}

// Rejection explains why a raw quote did not pass validation
type Rejection struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Contract string `json:"contract"`
	Reason   string `json:"reason"`
}
