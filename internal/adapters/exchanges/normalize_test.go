package exchanges

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/internal/domain/option"
	"volguard/pkg/blackscholes"
)

func validRaw(now time.Time) RawQuote {
	return RawQuote{
		Exchange:          "deribit",
		Symbol:            "BTC",
		OptionType:        "call",
		Strike:            50000,
		Expiry:            now.Add(30 * 24 * time.Hour),
		UnderlyingPrice:   48000,
		OptionPrice:       1200,
		Volume:            15,
		OpenInterest:      300,
		ImpliedVolatility: 0.65,
		Delta:             0.45,
		Gamma:             0.0001,
		Theta:             -25,
		Vega:              80,
		HasGreek:          true,
		Timestamp:         now,
	}
}

func TestNormalizeValidQuote(t *testing.T) {
	now := time.Now().UTC()
	n := NewNormalizer(blackscholes.NewDefaultPricer())

	quotes, rejections := n.Normalize([]RawQuote{validRaw(now)}, now)

	require.Len(t, quotes, 1)
	assert.Empty(t, rejections)
	assert.Equal(t, option.TypeCall, quotes[0].OptionType)
	assert.Equal(t, 0.45, quotes[0].Delta)
	assert.Equal(t, now, quotes[0].Timestamp)
}

func TestNormalizeRejections(t *testing.T) {
	now := time.Now().UTC()
	n := NewNormalizer(blackscholes.NewDefaultPricer())

	cases := []struct {
		name   string
		mutate func(*RawQuote)
		reason string
	}{
		{"invalid type", func(r *RawQuote) { r.OptionType = "CALL" }, `invalid option type "CALL"`},
		{"zero strike", func(r *RawQuote) { r.Strike = 0 }, "non-positive strike"},
		{"zero underlying", func(r *RawQuote) { r.UnderlyingPrice = 0 }, "non-positive underlying price"},
		{"negative price", func(r *RawQuote) { r.OptionPrice = -1 }, "negative option price"},
		{"negative volume", func(r *RawQuote) { r.Volume = -5 }, "negative volume"},
		{"negative oi", func(r *RawQuote) { r.OpenInterest = -1 }, "negative open interest"},
		{"negative iv", func(r *RawQuote) { r.ImpliedVolatility = -0.1 }, "negative implied volatility"},
		{"missing expiry", func(r *RawQuote) { r.Expiry = time.Time{} }, "missing expiry"},
		{"expired", func(r *RawQuote) { r.Expiry = now.Add(-time.Hour) }, "contract expired"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw(now)
			tc.mutate(&raw)

			quotes, rejections := n.Normalize([]RawQuote{raw}, now)

			assert.Empty(t, quotes)
			require.Len(t, rejections, 1)
			assert.Equal(t, tc.reason, rejections[0].Reason)
			assert.Equal(t, "deribit", rejections[0].Exchange)
		})
	}
}

func TestNormalizeFillsMissingGreeks(t *testing.T) {
	now := time.Now().UTC()
	n := NewNormalizer(blackscholes.NewDefaultPricer())

	raw := validRaw(now)
	raw.HasGreek = false
	raw.Delta, raw.Gamma, raw.Theta, raw.Vega = 0, 0, 0, 0

	quotes, rejections := n.Normalize([]RawQuote{raw}, now)

	require.Len(t, quotes, 1)
	assert.Empty(t, rejections)

	q := quotes[0]
	assert.Greater(t, q.Delta, 0.0)
	assert.Less(t, q.Delta, 1.0)
	assert.Greater(t, q.Gamma, 0.0)
	assert.Greater(t, q.Vega, 0.0)
	assert.Less(t, q.Theta, 0.0)
}

func TestNormalizeDefaultsTimestamp(t *testing.T) {
	now := time.Now().UTC()
	n := NewNormalizer(blackscholes.NewDefaultPricer())

	raw := validRaw(now)
	raw.Timestamp = time.Time{}

	quotes, _ := n.Normalize([]RawQuote{raw}, now)

	require.Len(t, quotes, 1)
	assert.Equal(t, now, quotes[0].Timestamp)
}
