package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volguard_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volguard_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Exchange metrics
	ExchangeAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_exchange_api_calls_total",
			Help: "Total number of exchange API calls",
		},
		[]string{"exchange", "status"}, // status: success|error|rate_limited
	)

	QuotesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_quotes_ingested_total",
			Help: "Total option quotes accepted into storage",
		},
		[]string{"exchange", "symbol"},
	)

	QuotesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_quotes_rejected_total",
			Help: "Total raw quotes rejected during normalization",
		},
		[]string{"exchange", "reason"},
	)

	// Analytics metrics
	RiskComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_risk_computations_total",
			Help: "Total risk snapshot computations",
		},
		[]string{"symbol", "period", "status"},
	)

	DeviationAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_deviation_anomalies_total",
			Help: "Total anomalous deviation records detected",
		},
		[]string{"symbol", "period", "level"},
	)

	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_alerts_raised_total",
			Help: "Total threshold alerts raised",
		},
		[]string{"symbol", "indicator", "tier"},
	)

	AlertsSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_alerts_suppressed_total",
			Help: "Total alerts suppressed by deduplication",
		},
		[]string{"symbol", "indicator"},
	)

	// API metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_http_requests_total",
			Help: "Total HTTP API requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volguard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"path", "method"},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volguard_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics
func Init() {
	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Exchange metrics
	prometheus.MustRegister(ExchangeAPICalls)
	prometheus.MustRegister(QuotesIngested)
	prometheus.MustRegister(QuotesRejected)

	// Analytics metrics
	prometheus.MustRegister(RiskComputations)
	prometheus.MustRegister(DeviationAnomalies)
	prometheus.MustRegister(AlertsRaised)
	prometheus.MustRegister(AlertsSuppressed)

	// API metrics
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)

	// Database metrics
	prometheus.MustRegister(DBQueries)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordExchangeCall records an exchange API call outcome
func RecordExchangeCall(exchange string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ExchangeAPICalls.WithLabelValues(exchange, status).Inc()
}

// RecordKafkaMessage records a produced Kafka message
func RecordKafkaMessage(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Inc()
}
