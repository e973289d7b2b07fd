package reportservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
)

func ptr(v float64) *float64 { return &v }

func record(optType option.Type, exchange string, devPct, volume float64, volumeChange *float64, anomaly bool, ts time.Time) deviation.Record {
	return deviation.Record{
		Symbol:              "BTC",
		Period:              option.Period4h,
		Exchange:            exchange,
		Timestamp:           ts,
		OptionType:          optType,
		DeviationPercent:    devPct,
		Volume:              volume,
		VolumeChangePercent: volumeChange,
		IsAnomaly:           anomaly,
	}
}

var day1 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestSummary(t *testing.T) {
	agg := NewAggregator()

	records := []deviation.Record{
		record(option.TypeCall, "deribit", 2, 100, ptr(10), false, day1),
		record(option.TypeCall, "deribit", 4, 100, ptr(30), false, day1),
		record(option.TypePut, "okx", 6, 100, nil, true, day1),
	}

	s := agg.Summary(records)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.CallCount)
	assert.Equal(t, 1, s.PutCount)
	assert.Equal(t, 1, s.AnomalyCount)
	assert.InDelta(t, 0.5, s.PutCallRatio, 1e-9)
	assert.InDelta(t, 100.0/3, s.AnomalyPercent, 1e-9)

	assert.InDelta(t, 4.0, s.Deviation.Mean, 1e-9)
	assert.InDelta(t, 6.0, s.Deviation.Max, 1e-9)
	assert.InDelta(t, 2.0, s.Deviation.Min, 1e-9)
	assert.InDelta(t, 2.0, s.Deviation.Stdev, 1e-9)

	// Undefined changes are excluded, not treated as zero
	assert.InDelta(t, 20.0, s.VolumeChange.Mean, 1e-9)
}

func TestSummary_SingleRecordStdevIsZero(t *testing.T) {
	agg := NewAggregator()

	s := agg.Summary([]deviation.Record{
		record(option.TypeCall, "deribit", 3, 100, nil, false, day1),
	})

	assert.Equal(t, 0.0, s.Deviation.Stdev)
	assert.InDelta(t, 3.0, s.Deviation.Mean, 1e-9)
}

func TestSummary_NoCallsNeutralRatio(t *testing.T) {
	agg := NewAggregator()

	s := agg.Summary([]deviation.Record{
		record(option.TypePut, "deribit", 3, 100, nil, false, day1),
	})

	assert.Equal(t, 1.0, s.PutCallRatio)
}

func TestDeviationDistribution_BoundIsInclusive(t *testing.T) {
	agg := NewAggregator()

	records := []deviation.Record{
		record(option.TypeCall, "deribit", 0, 1, nil, false, day1),
		record(option.TypeCall, "deribit", 1.9, 1, nil, false, day1),
		record(option.TypeCall, "deribit", 2, 1, nil, false, day1),
		record(option.TypeCall, "deribit", 9.5, 1, nil, false, day1),
		record(option.TypeCall, "deribit", 10, 1, nil, false, day1), // exact bound
	}

	buckets := agg.DeviationDistribution(records)
	require.Len(t, buckets, 5)

	assert.Equal(t, "0-2%", buckets[0].Label)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 1, buckets[1].Count)            // 2%
	assert.Equal(t, "8-10%", buckets[4].Label)      // last bin
	assert.Equal(t, 2, buckets[4].Count, "10% must land in the last bucket")
}

func TestVolumeChangeDistribution_OpenEnded(t *testing.T) {
	agg := NewAggregator()

	records := []deviation.Record{
		record(option.TypeCall, "deribit", 1, 1, ptr(10), false, day1),
		record(option.TypeCall, "deribit", 1, 1, ptr(150), false, day1),
		record(option.TypeCall, "deribit", 1, 1, ptr(5000), false, day1),
		record(option.TypeCall, "deribit", 1, 1, nil, false, day1), // undefined, dropped
	}

	buckets := agg.VolumeChangeDistribution(records)
	require.Len(t, buckets, 5)

	assert.Equal(t, 1, buckets[0].Count) // 0-20%
	assert.Equal(t, 1, buckets[3].Count) // 100-200%
	assert.Equal(t, "200%+", buckets[4].Label)
	assert.Equal(t, 1, buckets[4].Count)
}

func TestTrend_AscendingDays(t *testing.T) {
	agg := NewAggregator()

	day2 := day1.Add(24 * time.Hour)
	records := []deviation.Record{
		record(option.TypeCall, "deribit", 4, 1, ptr(20), true, day2),
		record(option.TypeCall, "deribit", 2, 1, ptr(10), false, day1),
		record(option.TypePut, "deribit", 6, 1, ptr(30), false, day1),
	}

	points := agg.Trend(records)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-06-01", points[0].Day)
	assert.InDelta(t, 4.0, points[0].MeanDeviation, 1e-9)
	assert.InDelta(t, 20.0, points[0].MeanVolumeChange, 1e-9)
	assert.Equal(t, 0, points[0].AnomalyCount)

	assert.Equal(t, "2025-06-02", points[1].Day)
	assert.Equal(t, 1, points[1].AnomalyCount)
	assert.InDelta(t, 100.0, points[1].AnomalyPercent, 1e-9)
}

func TestCompareExchanges(t *testing.T) {
	agg := NewAggregator()

	current := []deviation.Record{
		record(option.TypeCall, "deribit", 1, 300, nil, true, day1),
		record(option.TypePut, "deribit", 1, 100, nil, false, day1),
		record(option.TypeCall, "okx", 1, 100, nil, false, day1),
		record(option.TypeCall, "unknown", 1, 999, nil, false, day1), // unconfigured, dropped
	}
	prior := []deviation.Record{
		record(option.TypeCall, "deribit", 1, 200, nil, false, day1.Add(-24*time.Hour)),
		record(option.TypePut, "deribit", 1, 50, nil, false, day1.Add(-24*time.Hour)),
	}

	cmp := agg.CompareExchanges([]string{"deribit", "okx"}, current, prior)

	require.Len(t, cmp.Exchanges, 2)
	assert.Equal(t, "deribit", cmp.Exchanges[0].Exchange)
	assert.InDelta(t, 3.0, cmp.Exchanges[0].CallPutRatio, 1e-9)
	assert.Equal(t, 1, cmp.Exchanges[0].AnomalyCount)

	// okx has no put volume: neutral ratio
	assert.Equal(t, 1.0, cmp.Exchanges[1].CallPutRatio)

	assert.InDelta(t, 400.0, cmp.TotalCallVolume, 1e-9)
	assert.InDelta(t, 100.0, cmp.TotalPutVolume, 1e-9)
	assert.InDelta(t, 4.0, cmp.CallPutRatio, 1e-9)

	// (500-250)/250 = 100%
	assert.InDelta(t, 100.0, cmp.TotalVolumeChangePercent, 1e-9)
	assert.InDelta(t, 100.0, cmp.CallVolumeChangePercent, 1e-9)
	assert.InDelta(t, 100.0, cmp.PutVolumeChangePercent, 1e-9)

	// ratio 4.0 severely skewed but volume change only at the warning
	// boundary (not above): ratio attention applies
	assert.Equal(t, "attention", cmp.AlertLevel)
}

func TestExchangeAlertLevel(t *testing.T) {
	assert.Equal(t, "normal", exchangeAlertLevel(1.0, 50))
	assert.Equal(t, "attention", exchangeAlertLevel(0.5, 50))
	assert.Equal(t, "warning", exchangeAlertLevel(1.0, 150))
	assert.Equal(t, "warning", exchangeAlertLevel(3.0, 150))
	assert.Equal(t, "severe", exchangeAlertLevel(3.0, 250))
	assert.Equal(t, "severe", exchangeAlertLevel(0.3, -250))
}
