package deviationservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func contractQuote(optType option.Type, strike, volume, premium, underlying float64, ts time.Time) option.Quote {
	return option.Quote{
		Symbol:          "BTC",
		Exchange:        "deribit",
		Timestamp:       ts,
		OptionType:      optType,
		Strike:          strike,
		Expiry:          time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC),
		UnderlyingPrice: underlying,
		OptionPrice:     premium,
		Volume:          volume,
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name          string
		volumeChange  *float64
		premiumChange *float64
		priceChange   *float64
		wantAnomaly   bool
		wantLevel     deviation.AnomalyLevel
	}{
		{"volume spike alone", ptr(60), ptr(10), ptr(10), true, deviation.LevelAttention},
		{"volume and premium spikes", ptr(60), ptr(40), ptr(10), true, deviation.LevelWarning},
		{"divergence alone", ptr(10), ptr(5), ptr(-5), true, deviation.LevelWarning},
		{"all conditions", ptr(80), ptr(-50), ptr(20), true, deviation.LevelSevere},
		{"quiet contract", ptr(10), ptr(5), ptr(5), false, deviation.LevelNone},
		{"premium spike alone", ptr(10), ptr(35), ptr(5), true, deviation.LevelAttention},
		{"undefined changes", nil, nil, nil, false, deviation.LevelNone},
		{"negative volume change is not condition A", ptr(-60), ptr(5), ptr(5), false, deviation.LevelNone},
		{"negative premium spike counts", ptr(10), ptr(-35), ptr(-5), true, deviation.LevelAttention},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isAnomaly, level := Classify(tc.volumeChange, tc.premiumChange, tc.priceChange)
			assert.Equal(t, tc.wantAnomaly, isAnomaly)
			assert.Equal(t, tc.wantLevel, level)
		})
	}
}

func TestDetect_StrikeRangeFilter(t *testing.T) {
	d := NewDetector(10, 100)

	current := []option.Quote{
		contractQuote(option.TypeCall, 56000, 10, 500, 50000, testNow), // 12% away
		contractQuote(option.TypeCall, 52000, 10, 500, 50000, testNow), // 4% away
	}

	records := d.Detect("BTC", option.Period4h, current, nil, 50000, testNow)

	require.Len(t, records, 1)
	assert.Equal(t, 52000.0, records[0].Strike)
	assert.InDelta(t, 4.0, records[0].DeviationPercent, 1e-9)
}

func TestDetect_SkipsZeroVolume(t *testing.T) {
	d := NewDetector(10, 100)

	current := []option.Quote{
		contractQuote(option.TypeCall, 50000, 0, 500, 50000, testNow),
	}

	assert.Empty(t, d.Detect("BTC", option.Period1h, current, nil, 50000, testNow))
}

func TestDetect_WindowComparison(t *testing.T) {
	d := NewDetector(10, 100)

	prevTime := testNow.Add(-time.Hour)
	previous := []option.Quote{
		contractQuote(option.TypeCall, 50000, 100, 1000, 48000, prevTime.Add(-time.Minute)),
		// More recent quote for the same contract must win
		contractQuote(option.TypeCall, 50000, 200, 1000, 48000, prevTime),
	}
	current := []option.Quote{
		contractQuote(option.TypeCall, 50000, 500, 1200, 50400, testNow),
	}

	records := d.Detect("BTC", option.Period1h, current, previous, 50000, testNow)
	require.Len(t, records, 1)

	r := records[0]
	require.NotNil(t, r.VolumeChangePercent)
	assert.InDelta(t, 150.0, *r.VolumeChangePercent, 1e-9) // vs 200, not 100
	require.NotNil(t, r.PremiumChangePercent)
	assert.InDelta(t, 20.0, *r.PremiumChangePercent, 1e-9)
	require.NotNil(t, r.PriceChangePercent)
	assert.InDelta(t, 5.0, *r.PriceChangePercent, 1e-9)

	assert.True(t, r.IsAnomaly) // volume change 150% fires condition A
	assert.Equal(t, deviation.LevelAttention, r.AnomalyLevel)
}

func TestDetect_CollapsesRepeatedCurrentQuotes(t *testing.T) {
	d := NewDetector(10, 100)

	// Several fetch cycles land in one window: the same contract quoted
	// repeatedly must still yield a single record, built from the most
	// recent quote.
	current := []option.Quote{
		contractQuote(option.TypeCall, 50000, 100, 1000, 50000, testNow.Add(-10*time.Minute)),
		contractQuote(option.TypeCall, 50000, 300, 1100, 50000, testNow.Add(-time.Minute)),
		contractQuote(option.TypeCall, 50000, 200, 1050, 50000, testNow.Add(-5*time.Minute)),
	}
	previous := []option.Quote{
		contractQuote(option.TypeCall, 50000, 100, 1000, 50000, testNow.Add(-time.Hour)),
	}

	records := d.Detect("BTC", option.Period1h, current, previous, 50000, testNow)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 300.0, r.Volume)
	require.NotNil(t, r.VolumeChangePercent)
	assert.InDelta(t, 200.0, *r.VolumeChangePercent, 1e-9)
	require.NotNil(t, r.PremiumChangePercent)
	assert.InDelta(t, 10.0, *r.PremiumChangePercent, 1e-9)
}

func TestDetect_NewContractSentinel(t *testing.T) {
	d := NewDetector(10, 100)

	current := []option.Quote{
		contractQuote(option.TypePut, 49000, 50, 800, 50000, testNow),
	}

	records := d.Detect("BTC", option.Period15m, current, nil, 50000, testNow)
	require.Len(t, records, 1)

	r := records[0]
	require.NotNil(t, r.VolumeChangePercent)
	assert.Equal(t, 100.0, *r.VolumeChangePercent)
	assert.Nil(t, r.PremiumChangePercent)
	assert.Nil(t, r.PriceChangePercent)

	// The sentinel crosses the volume cutoff on its own
	assert.True(t, r.IsAnomaly)
	assert.Equal(t, deviation.LevelAttention, r.AnomalyLevel)
}

func TestDetect_ZeroDenominatorsAreUndefined(t *testing.T) {
	d := NewDetector(10, 100)

	prevTime := testNow.Add(-15 * time.Minute)
	prev := contractQuote(option.TypeCall, 50000, 0, 0, 0, prevTime)
	previous := []option.Quote{prev}
	current := []option.Quote{
		contractQuote(option.TypeCall, 50000, 40, 900, 50000, testNow),
	}

	records := d.Detect("BTC", option.Period15m, current, previous, 50000, testNow)
	require.Len(t, records, 1)

	r := records[0]
	assert.Nil(t, r.VolumeChangePercent, "zero prior volume has no defined change")
	assert.Nil(t, r.PremiumChangePercent)
	assert.Nil(t, r.PriceChangePercent)
	assert.False(t, r.IsAnomaly)
}

func TestBuildAlert(t *testing.T) {
	record := &deviation.Record{
		Symbol:               "BTC",
		Period:               option.Period4h,
		OptionType:           option.TypeCall,
		Strike:               52000,
		DeviationPercent:     4.0,
		VolumeChangePercent:  ptr(80),
		PremiumChangePercent: ptr(-50),
		PriceChangePercent:   ptr(20),
		AnomalyLevel:         deviation.LevelSevere,
	}

	alert := BuildAlert(record, testNow)

	assert.Equal(t, deviation.LevelSevere, alert.Level)
	assert.Contains(t, alert.Trigger, "volume change 80.0%")
	assert.Contains(t, alert.Trigger, "premium change -50.0%")
	assert.Contains(t, alert.Trigger, "divergence")
	assert.Contains(t, alert.Trigger, "premium down 50.0% while price up 20.0%")
	assert.False(t, alert.Acknowledged)
}
