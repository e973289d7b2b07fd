package deviation

import (
	"time"

	"github.com/google/uuid"

	"volguard/internal/domain/option"
)

// AnomalyLevel grades how strongly a contract diverged between windows
type AnomalyLevel string

const (
	LevelNone      AnomalyLevel = ""
	LevelAttention AnomalyLevel = "attention"
	LevelWarning   AnomalyLevel = "warning"
	LevelSevere    AnomalyLevel = "severe"
)

// String returns string representation
func (l AnomalyLevel) String() string {
	return string(l)
}

// Record is one near-the-money contract observation for a computation run.
// Change percentages are nil when the prior window offers no defined
// comparison (zero denominators, missing prior quote).
type Record struct {
	ID        uuid.UUID     `db:"id"`
	Symbol    string        `db:"symbol"`
	Period    option.Period `db:"period"`
	Exchange  string        `db:"exchange"`
	Timestamp time.Time     `db:"timestamp"`

	// Contract
	OptionType option.Type `db:"option_type"`
	Strike     float64     `db:"strike"`
	Expiry     time.Time   `db:"expiry"`

	// Deviation from the underlying
	MarketPrice      float64 `db:"market_price"`
	DeviationPercent float64 `db:"deviation_percent"`

	// Window-over-window behavior
	Volume               float64  `db:"volume"`
	VolumeChangePercent  *float64 `db:"volume_change_percent"`
	Premium              float64  `db:"premium"`
	PremiumChangePercent *float64 `db:"premium_change_percent"`
	PriceChangePercent   *float64 `db:"price_change_percent"`

	IsAnomaly    bool         `db:"is_anomaly"`
	AnomalyLevel AnomalyLevel `db:"anomaly_level"`

	CreatedAt time.Time `db:"created_at"`
}

// Alert is derived 1:1 from an anomalous Record. Only the acknowledged
// flag is mutable, and only in one direction.
type Alert struct {
	ID       uuid.UUID     `db:"id"`
	RecordID uuid.UUID     `db:"record_id"`
	Symbol   string        `db:"symbol"`
	Period   option.Period `db:"period"`

	Level        AnomalyLevel `db:"level"`
	Trigger      string       `db:"trigger_reason"`
	Acknowledged bool         `db:"acknowledged"`

	CreatedAt time.Time `db:"created_at"`
}
