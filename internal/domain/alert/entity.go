package alert

import (
	"time"

	"github.com/google/uuid"

	"volguard/pkg/errors"

	"volguard/internal/domain/option"
)

// Indicator names a risk metric that thresholds apply to
type Indicator string

const (
	IndicatorVolatilityIndex Indicator = "volatility_index"
	IndicatorVolatilitySkew  Indicator = "volatility_skew"
	IndicatorDeltaExposure   Indicator = "delta_exposure"
	IndicatorGammaExposure   Indicator = "gamma_exposure"
	IndicatorVegaExposure    Indicator = "vega_exposure"
	IndicatorPutCallRatio    Indicator = "put_call_ratio"
	IndicatorReflexivity     Indicator = "reflexivity"
)

// AllIndicators lists every thresholded indicator
func AllIndicators() []Indicator {
	return []Indicator{
		IndicatorVolatilityIndex,
		IndicatorVolatilitySkew,
		IndicatorDeltaExposure,
		IndicatorGammaExposure,
		IndicatorVegaExposure,
		IndicatorPutCallRatio,
		IndicatorReflexivity,
	}
}

// String returns string representation
func (i Indicator) String() string {
	return string(i)
}

// Tier is the severity of a crossed threshold
type Tier string

const (
	TierAttention Tier = "attention"
	TierWarning   Tier = "warning"
	TierSevere    Tier = "severe"
)

// String returns string representation
func (t Tier) String() string {
	return string(t)
}

// Threshold holds the ascending bounds for one indicator and period
type Threshold struct {
	ID        uuid.UUID     `db:"id"`
	Indicator Indicator     `db:"indicator"`
	Period    option.Period `db:"period"`

	Attention float64 `db:"attention"`
	Warning   float64 `db:"warning"`
	Severe    float64 `db:"severe"`

	IsEnabled bool      `db:"is_enabled"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Validate rejects threshold rows that break the tier ordering
func (t *Threshold) Validate() error {
	if t.Attention > t.Warning || t.Warning > t.Severe {
		return errors.Wrapf(errors.ErrInvalidThreshold,
			"bounds must satisfy attention <= warning <= severe, got %.4f/%.4f/%.4f",
			t.Attention, t.Warning, t.Severe)
	}
	return nil
}

// Alert records a threshold crossing for a symbol, indicator and period.
// The acknowledged flag is the only mutable field and flips one way.
type Alert struct {
	ID        uuid.UUID     `db:"id"`
	Symbol    string        `db:"symbol"`
	Indicator Indicator     `db:"indicator"`
	Period    option.Period `db:"period"`

	Tier  Tier    `db:"tier"`
	Value float64 `db:"value"`

	Acknowledged bool      `db:"acknowledged"`
	CreatedAt    time.Time `db:"created_at"`
}
