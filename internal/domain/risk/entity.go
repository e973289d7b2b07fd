package risk

import (
	"time"

	"github.com/google/uuid"

	"volguard/internal/domain/option"
)

// Sentiment classifies the prevailing options-market positioning
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// String returns string representation
func (s Sentiment) String() string {
	return string(s)
}

// Level buckets the composite risk score
type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelExtreme Level = "extreme"
)

// String returns string representation
func (l Level) String() string {
	return string(l)
}

// Snapshot is one append-only risk computation result for a symbol and period.
// Snapshots are created by the indicator calculator and never mutated.
type Snapshot struct {
	ID        uuid.UUID     `db:"id"`
	Symbol    string        `db:"symbol"`
	Period    option.Period `db:"period"`
	Timestamp time.Time     `db:"timestamp"`

	// Indicators
	VolatilityIndex float64   `db:"volatility_index"`
	VolatilitySkew  float64   `db:"volatility_skew"`
	PutCallRatio    float64   `db:"put_call_ratio"`
	Sentiment       Sentiment `db:"sentiment"`

	// Volume-weighted Greek exposures
	DeltaExposure float64 `db:"delta_exposure"`
	GammaExposure float64 `db:"gamma_exposure"`
	VegaExposure  float64 `db:"vega_exposure"`
	ThetaExposure float64 `db:"theta_exposure"`

	// Composite scores
	Reflexivity     float64 `db:"reflexivity"`
	FundingRate     float64 `db:"funding_rate"`
	LiquidationRisk float64 `db:"liquidation_risk"`
	RiskLevel       Level   `db:"risk_level"`

	CreatedAt time.Time `db:"created_at"`
}
