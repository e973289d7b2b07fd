package riskservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func quote(optType option.Type, strike, underlying, iv, volume float64) option.Quote {
	return option.Quote{
		Symbol:            "BTC",
		Exchange:          "deribit",
		Timestamp:         testNow,
		OptionType:        optType,
		Strike:            strike,
		Expiry:            testNow.Add(30 * 24 * time.Hour),
		UnderlyingPrice:   underlying,
		ImpliedVolatility: iv,
		Volume:            volume,
	}
}

func TestCompute_EmptyQuotes(t *testing.T) {
	calc := NewCalculator()

	snap := calc.Compute("BTC", option.Period4h, nil, nil, testNow)

	assert.Equal(t, 0.0, snap.VolatilityIndex)
	assert.Equal(t, 0.0, snap.VolatilitySkew)
	assert.Equal(t, 1.0, snap.PutCallRatio)
	assert.Equal(t, risk.SentimentNeutral, snap.Sentiment)
	assert.Equal(t, 0.0, snap.DeltaExposure)
	assert.Equal(t, 0.01, snap.FundingRate)
	assert.Equal(t, 0.5, snap.LiquidationRisk)
	assert.Equal(t, risk.LevelMedium, snap.RiskLevel)
}

func TestPutCallRatio(t *testing.T) {
	calc := NewCalculator()

	quotes := []option.Quote{
		quote(option.TypeCall, 50000, 50000, 0.6, 100),
		quote(option.TypePut, 50000, 50000, 0.6, 150),
	}
	assert.InDelta(t, 1.5, calc.putCallRatio(quotes), 1e-9)

	// No call volume defaults to neutral, for any put volume
	noCalls := []option.Quote{
		quote(option.TypePut, 50000, 50000, 0.6, 500),
	}
	assert.Equal(t, 1.0, calc.putCallRatio(noCalls))
	assert.Equal(t, 1.0, calc.putCallRatio([]option.Quote{
		quote(option.TypePut, 50000, 50000, 0.6, 0),
	}))
}

func TestWeightedImpliedVol_NearTheMoneyBand(t *testing.T) {
	calc := NewCalculator()

	// One NTM quote (2% away) and one far OTM quote (20% away);
	// only the NTM quote counts
	quotes := []option.Quote{
		quote(option.TypeCall, 51000, 50000, 0.5, 100),
		quote(option.TypeCall, 60000, 50000, 0.9, 100),
	}
	assert.InDelta(t, 0.5, calc.weightedImpliedVol(quotes, 50000), 1e-9)

	// Band empty: fall back to the full set
	farOnly := []option.Quote{
		quote(option.TypeCall, 60000, 50000, 0.9, 100),
		quote(option.TypeCall, 70000, 50000, 0.7, 300),
	}
	assert.InDelta(t, (0.9*100+0.7*300)/400, calc.weightedImpliedVol(farOnly, 50000), 1e-9)

	// Zero volume: plain mean
	zeroVol := []option.Quote{
		quote(option.TypeCall, 50500, 50000, 0.4, 0),
		quote(option.TypeCall, 49500, 50000, 0.6, 0),
	}
	assert.InDelta(t, 0.5, calc.weightedImpliedVol(zeroVol, 50000), 1e-9)
}

func TestBlendVolatilityIndex(t *testing.T) {
	calc := NewCalculator()

	// No previous snapshot: change term is zero
	assert.InDelta(t, 0.35, calc.blendVolatilityIndex(0.5, nil), 1e-9)

	prev := &risk.Snapshot{VolatilityIndex: 0.4}
	// change = (0.5-0.4)/0.4 = 0.25; index = 0.5*0.7 + 0.25*0.3
	assert.InDelta(t, 0.425, calc.blendVolatilityIndex(0.5, prev), 1e-9)

	// Falling IV uses the absolute change
	assert.InDelta(t, 0.425, calc.blendVolatilityIndex(0.5, &risk.Snapshot{VolatilityIndex: 2.0 / 3.0}), 1e-9)
}

func TestVolatilitySkew(t *testing.T) {
	calc := NewCalculator()

	quotes := []option.Quote{
		quote(option.TypePut, 45000, 50000, 0.75, 10),  // OTM put
		quote(option.TypePut, 44000, 50000, 0.65, 10),  // OTM put
		quote(option.TypeCall, 55000, 50000, 0.55, 10), // OTM call
		quote(option.TypePut, 55000, 50000, 0.95, 10),  // ITM put, excluded
	}
	assert.InDelta(t, 0.7-0.55, calc.volatilitySkew(quotes, 50000), 1e-9)

	// No OTM calls: skew defined as zero
	putsOnly := []option.Quote{
		quote(option.TypePut, 45000, 50000, 0.75, 10),
	}
	assert.Equal(t, 0.0, calc.volatilitySkew(putsOnly, 50000))
}

func TestWeightedExposure(t *testing.T) {
	calc := NewCalculator()

	q1 := quote(option.TypeCall, 50000, 50000, 0.6, 100)
	q1.Delta = 0.6
	q2 := quote(option.TypePut, 50000, 50000, 0.6, 300)
	q2.Delta = -0.4

	got := calc.weightedExposure([]option.Quote{q1, q2}, func(q *option.Quote) float64 { return q.Delta })
	assert.InDelta(t, (0.6*100-0.4*300)/400, got, 1e-9)

	// Zero total volume: exposure defined as zero
	q1.Volume, q2.Volume = 0, 0
	got = calc.weightedExposure([]option.Quote{q1, q2}, func(q *option.Quote) float64 { return q.Delta })
	assert.Equal(t, 0.0, got)
}

func TestReflexivity(t *testing.T) {
	calc := NewCalculator()

	q1 := quote(option.TypeCall, 50000, 50000, 0.6, 100)
	q1.Gamma = 0.0001
	q1.OpenInterest = 10000000
	q1.Delta = 0.6
	q2 := quote(option.TypePut, 50000, 50000, 0.6, 100)
	q2.Gamma = 0.0001
	q2.OpenInterest = 10000000
	q2.Delta = -0.2

	// gammaOI = 2000, normalized = 0.04
	// imbalance = |0.6-0.2| / 0.8 = 0.5 -> raw = 0.06 -> /0.1 = 0.6
	assert.InDelta(t, 0.6, calc.reflexivity([]option.Quote{q1, q2}, 50000), 1e-9)

	// Clamped at 1
	q1.OpenInterest = 1e10
	assert.Equal(t, 1.0, calc.reflexivity([]option.Quote{q1, q2}, 50000))
}

func TestSentiment(t *testing.T) {
	calc := NewCalculator()

	assert.Equal(t, risk.SentimentBearish, calc.sentiment(1.3, 0))
	assert.Equal(t, risk.SentimentBullish, calc.sentiment(0.7, 0))
	assert.Equal(t, risk.SentimentBearish, calc.sentiment(1.0, 0.06))
	assert.Equal(t, risk.SentimentBullish, calc.sentiment(1.0, -0.06))
	assert.Equal(t, risk.SentimentNeutral, calc.sentiment(1.0, 0.01))

	// PCR signal takes precedence over skew
	assert.Equal(t, risk.SentimentBearish, calc.sentiment(1.3, -0.2))
}

func TestRiskLevel(t *testing.T) {
	calc := NewCalculator()

	// Everything quiet
	assert.Equal(t, risk.LevelLow, calc.riskLevel(0.1, 0.01, 1.0, 0.01, 0, 0))

	// Elevated volatility and stretched PCR
	assert.Equal(t, risk.LevelHigh, calc.riskLevel(0.3, 0.25, 1.6, 0.1, 0, 0))

	// Everything stressed
	assert.Equal(t, risk.LevelExtreme, calc.riskLevel(0.5, 0.4, 2.5, 4.0, 0.1, 100))
}

func TestLiquidationRisk(t *testing.T) {
	calc := NewCalculator()

	assert.InDelta(t, (0.5*0.3+0.4*0.7)/2, calc.liquidationRisk(-0.5, 0.4), 1e-9)
	assert.Equal(t, 1.0, calc.liquidationRisk(5.0, 3.0))
	assert.Equal(t, 0.0, calc.liquidationRisk(0, 0))
}

func TestCompute_FullSnapshot(t *testing.T) {
	calc := NewCalculator()

	q1 := quote(option.TypeCall, 50500, 50000, 0.5, 200)
	q1.Delta = 0.55
	q2 := quote(option.TypePut, 49500, 50000, 0.6, 300)
	q2.Delta = -0.45

	snap := calc.Compute("BTC", option.Period1h, []option.Quote{q1, q2}, nil, testNow)

	assert.Equal(t, "BTC", snap.Symbol)
	assert.Equal(t, option.Period1h, snap.Period)
	assert.InDelta(t, 1.5, snap.PutCallRatio, 1e-9)
	assert.Equal(t, risk.SentimentBearish, snap.Sentiment)
	assert.NotZero(t, snap.ID)
	assert.Equal(t, testNow, snap.Timestamp)
}
