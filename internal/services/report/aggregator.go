package reportservice

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
)

// Distribution bin bounds
var (
	deviationBins    = []float64{0, 2, 4, 6, 8, 10}
	volumeChangeBins = []float64{0, 20, 50, 100, 200}
)

// Escalation cutoffs for the cross-exchange alert level
const (
	ratioAttentionLow   = 0.65
	ratioAttentionHigh  = 1.5
	ratioSevereLow      = 0.4
	ratioSevereHigh     = 2.5
	volumeChangeWarning = 100.0
	volumeChangeSevere  = 200.0
)

// SummaryStats bundles the read-side statistics over a filtered record set
type SummaryStats struct {
	Total        int `json:"total"`
	CallCount    int `json:"call_count"`
	PutCount     int `json:"put_count"`
	AnomalyCount int `json:"anomaly_count"`

	PutCallRatio   float64 `json:"put_call_ratio"`
	AnomalyPercent float64 `json:"anomaly_percent"`

	Deviation     MetricStats `json:"deviation"`
	VolumeChange  MetricStats `json:"volume_change"`
	PremiumChange MetricStats `json:"premium_change"`
}

// MetricStats holds mean/max/min/stdev of one metric
type MetricStats struct {
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Stdev float64 `json:"stdev"`
}

// DistributionBucket is one histogram bin
type DistributionBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TrendPoint is one calendar day of the trend series
type TrendPoint struct {
	Day              string  `json:"day"`
	MeanDeviation    float64 `json:"mean_deviation"`
	MeanVolumeChange float64 `json:"mean_volume_change"`
	AnomalyCount     int     `json:"anomaly_count"`
	AnomalyPercent   float64 `json:"anomaly_percent"`
}

// ExchangeVolumes compares call and put volume on one exchange
type ExchangeVolumes struct {
	Exchange     string  `json:"exchange"`
	CallVolume   float64 `json:"call_volume"`
	PutVolume    float64 `json:"put_volume"`
	CallPutRatio float64 `json:"call_put_ratio"`
	AnomalyCount int     `json:"anomaly_count"`
}

// ExchangeComparison is the cross-exchange read-side bundle
type ExchangeComparison struct {
	Exchanges []ExchangeVolumes `json:"exchanges"`

	TotalCallVolume float64 `json:"total_call_volume"`
	TotalPutVolume  float64 `json:"total_put_volume"`
	CallPutRatio    float64 `json:"call_put_ratio"`

	TotalVolumeChangePercent float64 `json:"total_volume_change_percent"`
	CallVolumeChangePercent  float64 `json:"call_volume_change_percent"`
	PutVolumeChangePercent   float64 `json:"put_volume_change_percent"`

	AlertLevel string `json:"alert_level"`
}

// Aggregator computes read-side statistics over already-filtered records.
// It is a pure component; caching and repository access live in the service.
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Summary computes counts, ratios and metric statistics
func (a *Aggregator) Summary(records []deviation.Record) SummaryStats {
	s := SummaryStats{Total: len(records)}

	var deviations, volumeChanges, premiumChanges []float64
	for _, r := range records {
		if r.OptionType == option.TypeCall {
			s.CallCount++
		} else {
			s.PutCount++
		}
		if r.IsAnomaly {
			s.AnomalyCount++
		}

		deviations = append(deviations, r.DeviationPercent)
		if r.VolumeChangePercent != nil {
			volumeChanges = append(volumeChanges, *r.VolumeChangePercent)
		}
		if r.PremiumChangePercent != nil {
			premiumChanges = append(premiumChanges, *r.PremiumChangePercent)
		}
	}

	s.PutCallRatio = ratioOrNeutral(float64(s.PutCount), float64(s.CallCount))
	if s.Total > 0 {
		s.AnomalyPercent = float64(s.AnomalyCount) / float64(s.Total) * 100
	}

	s.Deviation = metricStats(deviations)
	s.VolumeChange = metricStats(volumeChanges)
	s.PremiumChange = metricStats(premiumChanges)
	return s
}

// DeviationDistribution buckets deviation percents into fixed bins.
// The final bound is inclusive so a 10% deviation lands in the last bin.
func (a *Aggregator) DeviationDistribution(records []deviation.Record) []DistributionBucket {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.DeviationPercent
	}
	return bucketize(values, deviationBins, true)
}

// VolumeChangeDistribution buckets volume-change percents; the last bin
// is open-ended
func (a *Aggregator) VolumeChangeDistribution(records []deviation.Record) []DistributionBucket {
	var values []float64
	for _, r := range records {
		if r.VolumeChangePercent != nil {
			values = append(values, *r.VolumeChangePercent)
		}
	}
	return bucketize(values, volumeChangeBins, false)
}

// Trend groups records by UTC calendar day, ascending
func (a *Aggregator) Trend(records []deviation.Record) []TrendPoint {
	type dayAgg struct {
		deviations    []float64
		volumeChanges []float64
		anomalies     int
		total         int
	}

	byDay := make(map[string]*dayAgg)
	for _, r := range records {
		day := r.Timestamp.UTC().Format("2006-01-02")
		agg, ok := byDay[day]
		if !ok {
			agg = &dayAgg{}
			byDay[day] = agg
		}
		agg.total++
		agg.deviations = append(agg.deviations, r.DeviationPercent)
		if r.VolumeChangePercent != nil {
			agg.volumeChanges = append(agg.volumeChanges, *r.VolumeChangePercent)
		}
		if r.IsAnomaly {
			agg.anomalies++
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		agg := byDay[day]
		points = append(points, TrendPoint{
			Day:              day,
			MeanDeviation:    meanOrZero(agg.deviations),
			MeanVolumeChange: meanOrZero(agg.volumeChanges),
			AnomalyCount:     agg.anomalies,
			AnomalyPercent:   float64(agg.anomalies) / float64(agg.total) * 100,
		})
	}
	return points
}

// CompareExchanges sums call and put volume per configured exchange over
// the current records, computes the 24h-over-24h volume change against the
// prior day's records, and synthesizes an overall alert level
func (a *Aggregator) CompareExchanges(exchanges []string, current, prior []deviation.Record) ExchangeComparison {
	cmp := ExchangeComparison{}

	perExchange := make(map[string]*ExchangeVolumes, len(exchanges))
	for _, ex := range exchanges {
		ev := &ExchangeVolumes{Exchange: ex}
		perExchange[ex] = ev
	}

	for _, r := range current {
		ev, ok := perExchange[r.Exchange]
		if !ok {
			continue
		}
		if r.OptionType == option.TypeCall {
			ev.CallVolume += r.Volume
			cmp.TotalCallVolume += r.Volume
		} else {
			ev.PutVolume += r.Volume
			cmp.TotalPutVolume += r.Volume
		}
		if r.IsAnomaly {
			ev.AnomalyCount++
		}
	}

	for _, ex := range exchanges {
		ev := perExchange[ex]
		ev.CallPutRatio = ratioOrNeutral(ev.CallVolume, ev.PutVolume)
		cmp.Exchanges = append(cmp.Exchanges, *ev)
	}

	cmp.CallPutRatio = ratioOrNeutral(cmp.TotalCallVolume, cmp.TotalPutVolume)

	var priorCall, priorPut float64
	for _, r := range prior {
		if r.OptionType == option.TypeCall {
			priorCall += r.Volume
		} else {
			priorPut += r.Volume
		}
	}
	cmp.TotalVolumeChangePercent = changeOrZero(
		cmp.TotalCallVolume+cmp.TotalPutVolume, priorCall+priorPut)
	cmp.CallVolumeChangePercent = changeOrZero(cmp.TotalCallVolume, priorCall)
	cmp.PutVolumeChangePercent = changeOrZero(cmp.TotalPutVolume, priorPut)

	cmp.AlertLevel = exchangeAlertLevel(cmp.CallPutRatio, cmp.TotalVolumeChangePercent)
	return cmp
}

// exchangeAlertLevel escalates on a skewed call/put ratio and total volume
// swing, severe only when both cutoffs are severely exceeded together
func exchangeAlertLevel(ratio, volumeChange float64) string {
	ratioSkewed := ratio < ratioAttentionLow || ratio > ratioAttentionHigh
	ratioSevere := ratio < ratioSevereLow || ratio > ratioSevereHigh
	volumeWarning := math.Abs(volumeChange) > volumeChangeWarning
	volumeSevere := math.Abs(volumeChange) > volumeChangeSevere

	switch {
	case ratioSevere && volumeSevere:
		return "severe"
	case volumeWarning:
		return "warning"
	case ratioSkewed:
		return "attention"
	default:
		return "normal"
	}
}

func metricStats(values []float64) MetricStats {
	if len(values) == 0 {
		return MetricStats{}
	}

	mean, _ := stats.Mean(values)
	max, _ := stats.Max(values)
	min, _ := stats.Min(values)

	stdev := 0.0
	if len(values) >= 2 {
		stdev, _ = stats.StandardDeviationSample(values)
	}

	return MetricStats{Mean: mean, Max: max, Min: min, Stdev: stdev}
}

// bucketize drops each value into the first bin whose upper bound it is
// strictly below; with closedLast the final bound is inclusive, otherwise
// the last bin is open-ended
func bucketize(values []float64, bounds []float64, closedLast bool) []DistributionBucket {
	buckets := make([]DistributionBucket, 0, len(bounds))
	for i := 1; i < len(bounds); i++ {
		buckets = append(buckets, DistributionBucket{
			Label: bucketLabel(bounds[i-1], bounds[i]),
		})
	}
	if !closedLast {
		buckets = append(buckets, DistributionBucket{Label: bucketLabel(bounds[len(bounds)-1], math.Inf(1))})
	}

	for _, v := range values {
		idx := -1
		for i := 1; i < len(bounds); i++ {
			if v < bounds[i] {
				idx = i - 1
				break
			}
		}
		if idx < 0 {
			if closedLast {
				if v == bounds[len(bounds)-1] {
					idx = len(buckets) - 1 // bound itself is inclusive
				}
			} else {
				idx = len(buckets) - 1 // open-ended last bin
			}
		}
		if idx >= 0 {
			buckets[idx].Count++
		}
	}
	return buckets
}

func bucketLabel(low, high float64) string {
	if math.IsInf(high, 1) {
		return formatBound(low) + "%+"
	}
	return formatBound(low) + "-" + formatBound(high) + "%"
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, _ := stats.Mean(values)
	return mean
}

// ratioOrNeutral is numerator/denominator with a neutral 1.0 fallback
func ratioOrNeutral(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 1.0
	}
	return numerator / denominator
}

func changeOrZero(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
