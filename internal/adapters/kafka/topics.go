package kafka

// Topic definitions for event streaming
const (
	// Risk indicator alerts from the threshold gate
	TopicAlertRaised = "alerts.raised"

	// Strike deviation anomalies
	TopicDeviationAnomaly = "deviations.anomalies"

	// Risk snapshot computed for a symbol and period
	TopicRiskSnapshot = "risk.snapshots"
)
