// Package blackscholes implements European option pricing and Greeks
// using the Black-Scholes closed-form model.
package blackscholes

import (
	"math"
)

const (
	// DefaultRiskFreeRate is the continuously-compounded risk-free rate
	// used when no explicit rate is configured
	DefaultRiskFreeRate = 0.03

	// MinVolatility and MaxVolatility bound the annualized implied
	// volatility accepted by the model
	MinVolatility = 0.05
	MaxVolatility = 1.0
)

// OptionType distinguishes calls and puts
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Greeks holds the standard first and second order sensitivities.
// Vega is expressed per 1% volatility move, Theta per calendar day.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
}

// Pricer computes Black-Scholes prices and Greeks with a fixed risk-free rate
type Pricer struct {
	riskFreeRate float64
}

// NewPricer creates a pricer with the given risk-free rate
func NewPricer(riskFreeRate float64) *Pricer {
	return &Pricer{riskFreeRate: riskFreeRate}
}

// NewDefaultPricer creates a pricer with the default risk-free rate
func NewDefaultPricer() *Pricer {
	return NewPricer(DefaultRiskFreeRate)
}

// ClampVolatility bounds an implied volatility to the accepted range
func ClampVolatility(vol float64) float64 {
	if vol < MinVolatility {
		return MinVolatility
	}
	if vol > MaxVolatility {
		return MaxVolatility
	}
	return vol
}

// Price returns the Black-Scholes price of a European option.
// When expiry or volatility is zero the intrinsic value is returned.
func (p *Pricer) Price(optType OptionType, spot, strike, vol, expiry float64) float64 {
	if expiry <= 0 || vol <= 0 {
		return intrinsic(optType, spot, strike)
	}

	d1, d2 := p.d1d2(spot, strike, vol, expiry)
	discount := math.Exp(-p.riskFreeRate * expiry)

	if optType == Call {
		return spot*normCDF(d1) - strike*discount*normCDF(d2)
	}
	return strike*discount*normCDF(-d2) - spot*normCDF(-d1)
}

// ComputeGreeks returns delta, gamma, vega and theta for a European option.
// Degenerate inputs (expiry or volatility zero) yield zero Greeks.
func (p *Pricer) ComputeGreeks(optType OptionType, spot, strike, vol, expiry float64) Greeks {
	if expiry <= 0 || vol <= 0 || spot <= 0 || strike <= 0 {
		return Greeks{}
	}

	d1, d2 := p.d1d2(spot, strike, vol, expiry)
	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pd1 := normPDF(d1)
	sqrtT := math.Sqrt(expiry)
	discount := math.Exp(-p.riskFreeRate * expiry)

	g := Greeks{
		Gamma: pd1 / (spot * vol * sqrtT),
		Vega:  spot * sqrtT * pd1 * 0.01,
	}

	decay := -(spot * pd1 * vol) / (2 * sqrtT)
	if optType == Call {
		g.Delta = nd1
		g.Theta = (decay - p.riskFreeRate*strike*discount*nd2) / 365
	} else {
		g.Delta = nd1 - 1
		g.Theta = (decay + p.riskFreeRate*strike*discount*normCDF(-d2)) / 365
	}

	return g
}

func (p *Pricer) d1d2(spot, strike, vol, expiry float64) (float64, float64) {
	sqrtT := math.Sqrt(expiry)
	d1 := (math.Log(spot/strike) + (p.riskFreeRate+0.5*vol*vol)*expiry) / (vol * sqrtT)
	return d1, d1 - vol*sqrtT
}

func intrinsic(optType OptionType, spot, strike float64) float64 {
	if optType == Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
