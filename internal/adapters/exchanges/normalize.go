package exchanges

import (
	"fmt"
	"time"

	"volguard/pkg/blackscholes"

	"volguard/internal/domain/option"
)

// Normalizer converts raw exchange payloads into typed quotes, rejecting
// malformed entries with a reason instead of coercing fields to zero.
type Normalizer struct {
	pricer *blackscholes.Pricer
}

// NewNormalizer creates a normalizer; missing Greeks are filled from the
// Black-Scholes model
func NewNormalizer(pricer *blackscholes.Pricer) *Normalizer {
	return &Normalizer{pricer: pricer}
}

// Normalize validates a batch of raw quotes. Valid quotes and rejections
// are returned together so callers can persist one and count the other.
func (n *Normalizer) Normalize(raws []RawQuote, now time.Time) ([]option.Quote, []Rejection) {
	quotes := make([]option.Quote, 0, len(raws))
	var rejections []Rejection

	for _, raw := range raws {
		q, reason := n.normalizeOne(raw, now)
		if reason != "" {
			rejections = append(rejections, Rejection{
				Exchange: raw.Exchange,
				Symbol:   raw.Symbol,
				Contract: contractLabel(raw),
				Reason:   reason,
			})
			continue
		}
		quotes = append(quotes, q)
	}

	return quotes, rejections
}

func (n *Normalizer) normalizeOne(raw RawQuote, now time.Time) (option.Quote, string) {
	optType := option.Type(raw.OptionType)
	switch {
	case !optType.Valid():
		return option.Quote{}, fmt.Sprintf("invalid option type %q", raw.OptionType)
	case raw.Strike <= 0:
		return option.Quote{}, "non-positive strike"
	case raw.UnderlyingPrice <= 0:
		return option.Quote{}, "non-positive underlying price"
	case raw.OptionPrice < 0:
		return option.Quote{}, "negative option price"
	case raw.Volume < 0:
		return option.Quote{}, "negative volume"
	case raw.OpenInterest < 0:
		return option.Quote{}, "negative open interest"
	case raw.ImpliedVolatility < 0:
		return option.Quote{}, "negative implied volatility"
	case raw.Expiry.IsZero():
		return option.Quote{}, "missing expiry"
	case !raw.Expiry.After(now):
		return option.Quote{}, "contract expired"
	}

	ts := raw.Timestamp
	if ts.IsZero() {
		ts = now
	}

	q := option.Quote{
		Symbol:            raw.Symbol,
		Exchange:          raw.Exchange,
		Timestamp:         ts,
		OptionType:        optType,
		Strike:            raw.Strike,
		Expiry:            raw.Expiry,
		UnderlyingPrice:   raw.UnderlyingPrice,
		OptionPrice:       raw.OptionPrice,
		Volume:            raw.Volume,
		OpenInterest:      raw.OpenInterest,
		ImpliedVolatility: raw.ImpliedVolatility,
		Delta:             raw.Delta,
		Gamma:             raw.Gamma,
		Theta:             raw.Theta,
		Vega:              raw.Vega,
	}

	if !raw.HasGreek {
		vol := blackscholes.ClampVolatility(raw.ImpliedVolatility)
		greeks := n.pricer.ComputeGreeks(modelType(optType), raw.UnderlyingPrice, raw.Strike, vol, q.TimeToExpiry(now))
		q.Delta = greeks.Delta
		q.Gamma = greeks.Gamma
		q.Theta = greeks.Theta
		q.Vega = greeks.Vega
	}

	return q, ""
}

func modelType(t option.Type) blackscholes.OptionType {
	if t == option.TypePut {
		return blackscholes.Put
	}
	return blackscholes.Call
}

func contractLabel(raw RawQuote) string {
	return fmt.Sprintf("%s-%s-%.0f-%s", raw.Symbol, raw.Expiry.Format("020106"), raw.Strike, raw.OptionType)
}
