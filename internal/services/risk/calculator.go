package riskservice

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"volguard/internal/domain/option"
	"volguard/internal/domain/risk"
)

const (
	// nearTheMoneyBand is the relative strike distance that counts as NTM
	nearTheMoneyBand = 0.05

	// Volatility index blend: 70% current weighted IV, 30% rate of change
	ivWeight     = 0.7
	changeWeight = 0.3

	// reflexivityNorm scales the raw gamma/open-interest score into [0,1]
	reflexivityNorm = 0.1

	// fundingRatePlaceholder stands in until perpetual funding feeds land
	fundingRatePlaceholder = 0.01
)

// Calculator derives risk indicators from a batch of quotes for one symbol.
// It is a pure component; persistence and locking live in the service.
type Calculator struct{}

// NewCalculator creates a calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute produces a snapshot from the quotes of one symbol and period.
// previous is the last stored snapshot for the same symbol and period,
// nil when none exists. An empty quote set yields the documented neutral
// snapshot rather than an error.
func (c *Calculator) Compute(symbol string, period option.Period, quotes []option.Quote, previous *risk.Snapshot, now time.Time) *risk.Snapshot {
	if len(quotes) == 0 {
		return emptySnapshot(symbol, period, now)
	}

	underlying := latestUnderlying(quotes)

	weightedIV := c.weightedImpliedVol(quotes, underlying)
	volIndex := c.blendVolatilityIndex(weightedIV, previous)
	skew := c.volatilitySkew(quotes, underlying)
	pcr := c.putCallRatio(quotes)

	deltaExp := c.weightedExposure(quotes, func(q *option.Quote) float64 { return q.Delta })
	gammaExp := c.weightedExposure(quotes, func(q *option.Quote) float64 { return q.Gamma })
	vegaExp := c.weightedExposure(quotes, func(q *option.Quote) float64 { return q.Vega })
	thetaExp := c.weightedExposure(quotes, func(q *option.Quote) float64 { return q.Theta })

	return &risk.Snapshot{
		ID:              uuid.New(),
		Symbol:          symbol,
		Period:          period,
		Timestamp:       now,
		VolatilityIndex: volIndex,
		VolatilitySkew:  skew,
		PutCallRatio:    pcr,
		Sentiment:       c.sentiment(pcr, skew),
		DeltaExposure:   deltaExp,
		GammaExposure:   gammaExp,
		VegaExposure:    vegaExp,
		ThetaExposure:   thetaExp,
		Reflexivity:     c.reflexivity(quotes, underlying),
		FundingRate:     fundingRatePlaceholder,
		LiquidationRisk: c.liquidationRisk(deltaExp, volIndex),
		RiskLevel:       c.riskLevel(volIndex, skew, pcr, deltaExp, gammaExp, vegaExp),
		CreatedAt:       now,
	}
}

// weightedImpliedVol is the volume-weighted mean IV over near-the-money
// quotes, falling back to the full set when the NTM band is empty and to
// a plain mean when total volume is zero
func (c *Calculator) weightedImpliedVol(quotes []option.Quote, underlying float64) float64 {
	ntm := make([]option.Quote, 0, len(quotes))
	if underlying > 0 {
		for _, q := range quotes {
			if math.Abs(q.Strike-underlying)/underlying < nearTheMoneyBand {
				ntm = append(ntm, q)
			}
		}
	}
	if len(ntm) == 0 {
		ntm = quotes
	}

	var weightedSum, totalVolume float64
	for _, q := range ntm {
		weightedSum += q.ImpliedVolatility * q.Volume
		totalVolume += q.Volume
	}
	if totalVolume > 0 {
		return weightedSum / totalVolume
	}

	ivs := make([]float64, len(ntm))
	for i, q := range ntm {
		ivs[i] = q.ImpliedVolatility
	}
	mean, err := stats.Mean(ivs)
	if err != nil {
		return 0
	}
	return mean
}

// blendVolatilityIndex combines the current weighted IV with its rate of
// change against the previous stored index
func (c *Calculator) blendVolatilityIndex(weightedIV float64, previous *risk.Snapshot) float64 {
	change := 0.0
	if previous != nil && previous.VolatilityIndex != 0 {
		change = (weightedIV - previous.VolatilityIndex) / previous.VolatilityIndex
	}
	return weightedIV*ivWeight + math.Abs(change)*changeWeight
}

// volatilitySkew is mean OTM-put IV minus mean OTM-call IV, zero when
// either side has no quotes
func (c *Calculator) volatilitySkew(quotes []option.Quote, underlying float64) float64 {
	var putIVs, callIVs []float64
	for _, q := range quotes {
		switch {
		case q.OptionType == option.TypePut && q.Strike < underlying:
			putIVs = append(putIVs, q.ImpliedVolatility)
		case q.OptionType == option.TypeCall && q.Strike > underlying:
			callIVs = append(callIVs, q.ImpliedVolatility)
		}
	}
	if len(putIVs) == 0 || len(callIVs) == 0 {
		return 0
	}

	putMean, err := stats.Mean(putIVs)
	if err != nil {
		return 0
	}
	callMean, err := stats.Mean(callIVs)
	if err != nil {
		return 0
	}
	return putMean - callMean
}

// putCallRatio defaults to neutral 1.0 when there is no call volume
func (c *Calculator) putCallRatio(quotes []option.Quote) float64 {
	var putVolume, callVolume float64
	for _, q := range quotes {
		if q.OptionType == option.TypePut {
			putVolume += q.Volume
		} else {
			callVolume += q.Volume
		}
	}
	if callVolume <= 0 {
		return 1.0
	}
	return putVolume / callVolume
}

func (c *Calculator) weightedExposure(quotes []option.Quote, greek func(*option.Quote) float64) float64 {
	var weightedSum, totalVolume float64
	for i := range quotes {
		weightedSum += greek(&quotes[i]) * quotes[i].Volume
		totalVolume += quotes[i].Volume
	}
	if totalVolume == 0 {
		return 0
	}
	return weightedSum / totalVolume
}

// reflexivity measures self-reinforcing exposure: total gamma scaled by
// open interest, normalized by the underlying price and amplified by the
// call/put delta imbalance
func (c *Calculator) reflexivity(quotes []option.Quote, underlying float64) float64 {
	if underlying <= 0 {
		return 0
	}

	var totalGammaOI, callDelta, putDelta float64
	for _, q := range quotes {
		totalGammaOI += q.Gamma * q.OpenInterest
		if q.OptionType == option.TypeCall {
			callDelta += q.Delta
		} else {
			putDelta += q.Delta
		}
	}
	putDeltaAbs := math.Abs(putDelta)

	imbalance := 0.0
	if callDelta+putDeltaAbs > 0 {
		imbalance = math.Abs(callDelta-putDeltaAbs) / (callDelta + putDeltaAbs)
	}

	raw := (totalGammaOI / underlying) * (1 + imbalance)
	return clamp01(raw / reflexivityNorm)
}

// sentiment flips on put/call ratio first, then on skew
func (c *Calculator) sentiment(pcr, skew float64) risk.Sentiment {
	switch {
	case pcr > 1.2:
		return risk.SentimentBearish
	case pcr < 0.8:
		return risk.SentimentBullish
	case skew > 0.05:
		return risk.SentimentBearish
	case skew < -0.05:
		return risk.SentimentBullish
	default:
		return risk.SentimentNeutral
	}
}

// liquidationRisk correlates with delta exposure magnitude and volatility
func (c *Calculator) liquidationRisk(deltaExposure, volatility float64) float64 {
	return clamp01((math.Abs(deltaExposure)*0.3 + volatility*0.7) / 2)
}

// riskLevel is a weighted sum of four bucketed sub-scores cut at
// 0.25/0.5/0.75
func (c *Calculator) riskLevel(volatility, skew, pcr, delta, gamma, vega float64) risk.Level {
	total := scoreVolatility(volatility)*0.3 +
		scoreSkew(skew)*0.2 +
		scorePCR(pcr)*0.3 +
		scoreGreeks(delta, gamma, vega)*0.2

	switch {
	case total < 0.25:
		return risk.LevelLow
	case total < 0.5:
		return risk.LevelMedium
	case total < 0.75:
		return risk.LevelHigh
	default:
		return risk.LevelExtreme
	}
}

func scoreVolatility(v float64) float64 {
	switch {
	case v < 0.15:
		return 0
	case v < 0.25:
		return 0.25
	case v < 0.35:
		return 0.5
	case v < 0.45:
		return 0.75
	default:
		return 1
	}
}

func scoreSkew(skew float64) float64 {
	abs := math.Abs(skew)
	switch {
	case abs < 0.05:
		return 0
	case abs < 0.1:
		return 0.25
	case abs < 0.2:
		return 0.5
	case abs < 0.3:
		return 0.75
	default:
		return 1
	}
}

func scorePCR(pcr float64) float64 {
	deviation := math.Abs(pcr - 1.0)
	switch {
	case deviation < 0.1:
		return 0
	case deviation < 0.3:
		return 0.25
	case deviation < 0.5:
		return 0.5
	case deviation < 0.8:
		return 0.75
	default:
		return 1
	}
}

func scoreGreeks(delta, gamma, vega float64) float64 {
	score := math.Abs(delta)*0.5 + math.Abs(gamma)*100*0.3 + math.Abs(vega)*0.01*0.2
	return clamp01(score / 5.0)
}

// emptySnapshot is the documented neutral result when no quotes exist
func emptySnapshot(symbol string, period option.Period, now time.Time) *risk.Snapshot {
	return &risk.Snapshot{
		ID:              uuid.New(),
		Symbol:          symbol,
		Period:          period,
		Timestamp:       now,
		VolatilityIndex: 0,
		VolatilitySkew:  0,
		PutCallRatio:    1.0,
		Sentiment:       risk.SentimentNeutral,
		FundingRate:     fundingRatePlaceholder,
		LiquidationRisk: 0.5,
		RiskLevel:       risk.LevelMedium,
		CreatedAt:       now,
	}
}

// latestUnderlying picks the underlying price of the most recent quote
func latestUnderlying(quotes []option.Quote) float64 {
	latest := quotes[0]
	for _, q := range quotes[1:] {
		if q.Timestamp.After(latest.Timestamp) {
			latest = q
		}
	}
	return latest.UnderlyingPrice
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
