package deviationservice

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
)

const (
	// Anomaly condition cutoffs
	volumeChangeCutoff  = 50.0
	premiumChangeCutoff = 30.0

	// DefaultStrikeRangePercent keeps only near-the-money contracts
	DefaultStrikeRangePercent = 10.0

	// DefaultNewContractVolumeChange is the sentinel assigned to contracts
	// with no prior-window match
	DefaultNewContractVolumeChange = 100.0
)

// Detector compares two time-adjacent quote windows and flags contracts
// whose trading behavior diverged anomalously. It is a pure component.
type Detector struct {
	strikeRangePercent      float64
	newContractVolumeChange float64
}

// NewDetector creates a detector with the given strike range and
// new-contract sentinel, falling back to defaults for non-positive values
func NewDetector(strikeRangePercent, newContractVolumeChange float64) *Detector {
	if strikeRangePercent <= 0 {
		strikeRangePercent = DefaultStrikeRangePercent
	}
	if newContractVolumeChange <= 0 {
		newContractVolumeChange = DefaultNewContractVolumeChange
	}
	return &Detector{
		strikeRangePercent:      strikeRangePercent,
		newContractVolumeChange: newContractVolumeChange,
	}
}

// Detect produces one record per qualifying current-window contract,
// comparing it against the most recent matching quote of the previous
// window. Both windows collapse to the most recent quote per contract,
// so repeated fetches within the window never multiply records.
// Zero-volume quotes and contracts outside the strike range are skipped.
func (d *Detector) Detect(symbol string, period option.Period, current, previous []option.Quote, marketPrice float64, now time.Time) []deviation.Record {
	if marketPrice <= 0 {
		return nil
	}

	prevByContract := latestByContract(previous)
	curByContract := latestByContract(current)

	var records []deviation.Record
	seen := make(map[option.ContractKey]bool, len(curByContract))
	for _, c := range current {
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		q := curByContract[key]
		if q.Volume == 0 {
			continue
		}

		deviationPercent := math.Abs(q.Strike-marketPrice) / marketPrice * 100
		if deviationPercent > d.strikeRangePercent {
			continue
		}

		var volumeChange, premiumChange, priceChange *float64
		if prev, ok := prevByContract[q.Key()]; ok {
			volumeChange = percentChange(q.Volume, prev.Volume)
			premiumChange = percentChange(q.OptionPrice, prev.OptionPrice)
			priceChange = percentChange(q.UnderlyingPrice, prev.UnderlyingPrice)
		} else {
			// Brand-new contract: no defined premium/price comparison,
			// volume change set to the configured sentinel
			sentinel := d.newContractVolumeChange
			volumeChange = &sentinel
		}

		isAnomaly, level := Classify(volumeChange, premiumChange, priceChange)

		records = append(records, deviation.Record{
			ID:                   uuid.New(),
			Symbol:               symbol,
			Period:               period,
			Exchange:             q.Exchange,
			Timestamp:            now,
			OptionType:           q.OptionType,
			Strike:               q.Strike,
			Expiry:               q.Expiry,
			MarketPrice:          marketPrice,
			DeviationPercent:     deviationPercent,
			Volume:               q.Volume,
			VolumeChangePercent:  volumeChange,
			Premium:              q.OptionPrice,
			PremiumChangePercent: premiumChange,
			PriceChangePercent:   priceChange,
			IsAnomaly:            isAnomaly,
			AnomalyLevel:         level,
			CreatedAt:            now,
		})
	}

	return records
}

// Classify grades a window-over-window comparison:
//   - condition A: volume change >= 50%
//   - condition B: |premium change| >= 30%
//   - condition C: premium and underlying price moved in opposite directions
//
// One of A/B alone is attention, divergence or two conditions is warning,
// all three together is severe.
func Classify(volumeChange, premiumChange, priceChange *float64) (bool, deviation.AnomalyLevel) {
	condA := volumeChange != nil && *volumeChange >= volumeChangeCutoff
	condB := premiumChange != nil && math.Abs(*premiumChange) >= premiumChangeCutoff
	condC := premiumChange != nil && priceChange != nil && *premiumChange**priceChange < 0

	if !condA && !condB && !condC {
		return false, deviation.LevelNone
	}

	switch {
	case condA && condB && condC:
		return true, deviation.LevelSevere
	case (condA && condB) || condC:
		return true, deviation.LevelWarning
	default:
		return true, deviation.LevelAttention
	}
}

// BuildAlert derives the alert for an anomalous record, enumerating which
// conditions fired and their magnitudes
func BuildAlert(record *deviation.Record, now time.Time) *deviation.Alert {
	var conditions []string

	if record.VolumeChangePercent != nil && *record.VolumeChangePercent >= volumeChangeCutoff {
		conditions = append(conditions, fmt.Sprintf("volume change %.1f%%", *record.VolumeChangePercent))
	}
	if record.PremiumChangePercent != nil && math.Abs(*record.PremiumChangePercent) >= premiumChangeCutoff {
		conditions = append(conditions, fmt.Sprintf("premium change %.1f%%", *record.PremiumChangePercent))
	}
	if record.PremiumChangePercent != nil && record.PriceChangePercent != nil &&
		*record.PremiumChangePercent**record.PriceChangePercent < 0 {
		conditions = append(conditions, fmt.Sprintf(
			"divergence: premium %s %.1f%% while price %s %.1f%%",
			direction(*record.PremiumChangePercent), math.Abs(*record.PremiumChangePercent),
			direction(*record.PriceChangePercent), math.Abs(*record.PriceChangePercent)))
	}

	return &deviation.Alert{
		ID:       uuid.New(),
		RecordID: record.ID,
		Symbol:   record.Symbol,
		Period:   record.Period,
		Level:    record.AnomalyLevel,
		Trigger: fmt.Sprintf("%s %s strike %.0f deviates %.1f%% from market: %s",
			record.Symbol, record.OptionType, record.Strike,
			record.DeviationPercent, strings.Join(conditions, ", ")),
		CreatedAt: now,
	}
}

func direction(v float64) string {
	if v > 0 {
		return "up"
	}
	return "down"
}

// latestByContract keeps the most recent quote per contract identity
func latestByContract(quotes []option.Quote) map[option.ContractKey]option.Quote {
	m := make(map[option.ContractKey]option.Quote, len(quotes))
	for _, q := range quotes {
		if existing, ok := m[q.Key()]; !ok || q.Timestamp.After(existing.Timestamp) {
			m[q.Key()] = q
		}
	}
	return m
}

// percentChange returns nil when the base offers no defined comparison
func percentChange(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	change := (current - previous) / previous * 100
	return &change
}
