package riskservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/risk"
)

func TestIndicatorValues(t *testing.T) {
	snapshot := &risk.Snapshot{
		VolatilityIndex: 0.35,
		VolatilitySkew:  -0.12,
		DeltaExposure:   -0.4,
		GammaExposure:   0.05,
		VegaExposure:    -25,
		PutCallRatio:    1.3,
		Reflexivity:     0.6,
	}

	values := IndicatorValues(snapshot)

	assert.Len(t, values, 7)
	assert.InDelta(t, 35.0, values[alert.IndicatorVolatilityIndex], 1e-9)
	assert.InDelta(t, 0.12, values[alert.IndicatorVolatilitySkew], 1e-9)
	assert.InDelta(t, 0.4, values[alert.IndicatorDeltaExposure], 1e-9)
	assert.InDelta(t, 0.05, values[alert.IndicatorGammaExposure], 1e-9)
	assert.InDelta(t, 25.0, values[alert.IndicatorVegaExposure], 1e-9)
	assert.InDelta(t, 1.3, values[alert.IndicatorPutCallRatio], 1e-9)
	assert.InDelta(t, 0.6, values[alert.IndicatorReflexivity], 1e-9)
}
