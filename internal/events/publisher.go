package events

import (
	"context"
	"time"

	"volguard/pkg/logger"

	"volguard/internal/adapters/kafka"
	"volguard/internal/domain/alert"
	"volguard/internal/domain/deviation"
	"volguard/internal/domain/risk"
	"volguard/internal/metrics"
)

// Publisher fans computation results out to the event stream.
// Publishing is best-effort: a broker outage must never fail a
// computation that already committed to storage.
type Publisher interface {
	PublishRiskSnapshot(ctx context.Context, snapshot *risk.Snapshot)
	PublishThresholdAlert(ctx context.Context, a *alert.Alert)
	PublishDeviationAlert(ctx context.Context, a *deviation.Alert, record *deviation.Record)
}

// RiskSnapshotEvent is the wire payload for risk.snapshots
type RiskSnapshotEvent struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	Period          string    `json:"period"`
	Timestamp       time.Time `json:"timestamp"`
	VolatilityIndex float64   `json:"volatility_index"`
	VolatilitySkew  float64   `json:"volatility_skew"`
	PutCallRatio    float64   `json:"put_call_ratio"`
	Sentiment       string    `json:"sentiment"`
	Reflexivity     float64   `json:"reflexivity"`
	LiquidationRisk float64   `json:"liquidation_risk"`
	RiskLevel       string    `json:"risk_level"`
}

// ThresholdAlertEvent is the wire payload for alerts.raised
type ThresholdAlertEvent struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Indicator string    `json:"indicator"`
	Period    string    `json:"period"`
	Tier      string    `json:"tier"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviationAlertEvent is the wire payload for deviations.anomalies
type DeviationAlertEvent struct {
	ID               string    `json:"id"`
	RecordID         string    `json:"record_id"`
	Symbol           string    `json:"symbol"`
	Period           string    `json:"period"`
	Level            string    `json:"level"`
	Trigger          string    `json:"trigger"`
	Exchange         string    `json:"exchange,omitempty"`
	OptionType       string    `json:"option_type,omitempty"`
	Strike           float64   `json:"strike,omitempty"`
	DeviationPercent float64   `json:"deviation_percent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// KafkaPublisher publishes events through the Kafka producer
type KafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewKafkaPublisher creates a new Kafka-backed publisher
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

func (p *KafkaPublisher) PublishRiskSnapshot(ctx context.Context, snapshot *risk.Snapshot) {
	event := RiskSnapshotEvent{
		ID:              snapshot.ID.String(),
		Symbol:          snapshot.Symbol,
		Period:          snapshot.Period.String(),
		Timestamp:       snapshot.Timestamp,
		VolatilityIndex: snapshot.VolatilityIndex,
		VolatilitySkew:  snapshot.VolatilitySkew,
		PutCallRatio:    snapshot.PutCallRatio,
		Sentiment:       snapshot.Sentiment.String(),
		Reflexivity:     snapshot.Reflexivity,
		LiquidationRisk: snapshot.LiquidationRisk,
		RiskLevel:       snapshot.RiskLevel.String(),
	}

	p.publish(ctx, kafka.TopicRiskSnapshot, snapshot.Symbol, event)
}

func (p *KafkaPublisher) PublishThresholdAlert(ctx context.Context, a *alert.Alert) {
	event := ThresholdAlertEvent{
		ID:        a.ID.String(),
		Symbol:    a.Symbol,
		Indicator: a.Indicator.String(),
		Period:    a.Period.String(),
		Tier:      a.Tier.String(),
		Value:     a.Value,
		CreatedAt: a.CreatedAt,
	}

	p.publish(ctx, kafka.TopicAlertRaised, a.Symbol, event)
}

func (p *KafkaPublisher) PublishDeviationAlert(ctx context.Context, a *deviation.Alert, record *deviation.Record) {
	event := DeviationAlertEvent{
		ID:        a.ID.String(),
		RecordID:  a.RecordID.String(),
		Symbol:    a.Symbol,
		Period:    a.Period.String(),
		Level:     a.Level.String(),
		Trigger:   a.Trigger,
		CreatedAt: a.CreatedAt,
	}
	if record != nil {
		event.Exchange = record.Exchange
		event.OptionType = record.OptionType.String()
		event.Strike = record.Strike
		event.DeviationPercent = record.DeviationPercent
	}

	p.publish(ctx, kafka.TopicDeviationAnomaly, a.Symbol, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, event interface{}) {
	err := p.producer.Publish(ctx, topic, key, event)
	metrics.RecordKafkaMessage(topic, err)
	if err != nil {
		p.log.Errorf("Failed to publish event: topic=%s key=%s: %v", topic, key, err)
	}
}

// NoopPublisher drops all events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRiskSnapshot(context.Context, *risk.Snapshot)                        {}
func (NoopPublisher) PublishThresholdAlert(context.Context, *alert.Alert)                        {}
func (NoopPublisher) PublishDeviationAlert(context.Context, *deviation.Alert, *deviation.Record) {}
