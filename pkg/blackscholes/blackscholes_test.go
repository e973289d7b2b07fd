package blackscholes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutCallParity(t *testing.T) {
	pricer := NewDefaultPricer()

	cases := []struct {
		name   string
		spot   float64
		strike float64
		vol    float64
		expiry float64
	}{
		{"at the money", 50000, 50000, 0.6, 0.25},
		{"deep in the money call", 50000, 30000, 0.8, 0.5},
		{"deep out of the money call", 50000, 80000, 0.4, 0.1},
		{"short dated", 3000, 3100, 0.7, 7.0 / 365},
		{"long dated", 3000, 2800, 0.5, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := pricer.Price(Call, tc.spot, tc.strike, tc.vol, tc.expiry)
			put := pricer.Price(Put, tc.spot, tc.strike, tc.vol, tc.expiry)
			forward := tc.spot - tc.strike*math.Exp(-DefaultRiskFreeRate*tc.expiry)

			assert.InDelta(t, forward, call-put, 1e-6, "put-call parity violated")
		})
	}
}

func TestDeltaRelation(t *testing.T) {
	pricer := NewDefaultPricer()

	callGreeks := pricer.ComputeGreeks(Call, 50000, 52000, 0.65, 0.2)
	putGreeks := pricer.ComputeGreeks(Put, 50000, 52000, 0.65, 0.2)

	assert.InDelta(t, 1.0, callGreeks.Delta-putGreeks.Delta, 1e-12)
	assert.InDelta(t, callGreeks.Gamma, putGreeks.Gamma, 1e-12, "gamma is identical for calls and puts")
	assert.InDelta(t, callGreeks.Vega, putGreeks.Vega, 1e-12, "vega is identical for calls and puts")
}

func TestPriceDegenerateInputs(t *testing.T) {
	pricer := NewDefaultPricer()

	// Zero expiry returns intrinsic value
	assert.Equal(t, 5000.0, pricer.Price(Call, 55000, 50000, 0.6, 0))
	assert.Equal(t, 0.0, pricer.Price(Call, 45000, 50000, 0.6, 0))
	assert.Equal(t, 5000.0, pricer.Price(Put, 45000, 50000, 0.6, 0))
	assert.Equal(t, 0.0, pricer.Price(Put, 55000, 50000, 0.6, 0))

	// Zero volatility also falls back to intrinsic
	assert.Equal(t, 2000.0, pricer.Price(Call, 52000, 50000, 0, 0.5))
}

func TestGreeksDegenerateInputs(t *testing.T) {
	pricer := NewDefaultPricer()

	assert.Equal(t, Greeks{}, pricer.ComputeGreeks(Call, 50000, 50000, 0.6, 0))
	assert.Equal(t, Greeks{}, pricer.ComputeGreeks(Put, 50000, 50000, 0, 0.5))
	assert.Equal(t, Greeks{}, pricer.ComputeGreeks(Call, 0, 50000, 0.6, 0.5))
}

func TestGreeksRanges(t *testing.T) {
	pricer := NewDefaultPricer()

	g := pricer.ComputeGreeks(Call, 50000, 50000, 0.6, 0.25)
	assert.Greater(t, g.Delta, 0.0)
	assert.Less(t, g.Delta, 1.0)
	assert.Greater(t, g.Gamma, 0.0)
	assert.Greater(t, g.Vega, 0.0)
	assert.Less(t, g.Theta, 0.0, "long options decay")

	p := pricer.ComputeGreeks(Put, 50000, 50000, 0.6, 0.25)
	assert.Less(t, p.Delta, 0.0)
	assert.Greater(t, p.Delta, -1.0)
}

func TestClampVolatility(t *testing.T) {
	assert.Equal(t, MinVolatility, ClampVolatility(0.01))
	assert.Equal(t, MaxVolatility, ClampVolatility(2.5))
	assert.Equal(t, 0.42, ClampVolatility(0.42))
}
