package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"volguard/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// check is a named connectivity probe. Critical checks gate readiness;
// redis is not critical because reports fall back to direct reads when
// the cache is down.
type check struct {
	name     string
	critical bool
	ping     func(ctx context.Context) error
}

// Handler serves the liveness, readiness and health endpoints
type Handler struct {
	log         *logger.Logger
	checks      []check
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health handler probing the three data stores
func New(
	log *logger.Logger,
	postgres *sqlx.DB,
	clickhouse driver.Conn,
	redisClient *redis.Client,
	serviceName string,
	version string,
) *Handler {
	return &Handler{
		log: log,
		checks: []check{
			{name: "postgres", critical: true, ping: postgres.PingContext},
			{name: "clickhouse", critical: true, ping: clickhouse.Ping},
			{name: "redis", critical: false, ping: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		},
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Status is the JSON body of the readiness and health endpoints
type Status struct {
	Status    string                     `json:"status"`
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one connectivity probe
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness answers the kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness answers the kubernetes readiness probe. Returns 503
// when any critical store is unreachable.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := h.runChecks(ctx)

	ready := true
	for _, c := range h.checks {
		if c.critical && results[c.name].Status != statusHealthy {
			ready = false
		}
	}

	status := h.buildStatus(results)
	code := http.StatusOK
	if !ready {
		status.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
		h.log.Warnf("Readiness check failed: %+v", results)
	}

	writeJSON(w, code, status)
}

// HandleHealth returns the detailed health report. Degraded (some
// non-critical checks failing) still answers 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	results := h.runChecks(ctx)

	healthy := 0
	for _, res := range results {
		if res.Status == statusHealthy {
			healthy++
		}
	}

	status := h.buildStatus(results)
	code := http.StatusOK
	switch {
	case healthy == 0:
		status.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	case healthy < len(h.checks):
		status.Status = statusDegraded
	}

	writeJSON(w, code, status)
}

// runChecks probes all stores concurrently
func (h *Handler) runChecks(ctx context.Context) map[string]ComponentHealth {
	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]ComponentHealth, len(h.checks))

	for _, c := range h.checks {
		wg.Add(1)
		go func(c check) {
			defer wg.Done()

			start := time.Now()
			err := c.ping(ctx)
			elapsed := time.Since(start)

			res := ComponentHealth{Status: statusHealthy, ResponseTime: elapsed.String()}
			if err != nil {
				h.log.Errorf("%s health check failed after %s: %v", c.name, elapsed, err)
				res.Status = statusUnhealthy
				res.Error = err.Error()
			}

			mu.Lock()
			results[c.name] = res
			mu.Unlock()
		}(c)
	}

	wg.Wait()
	return results
}

func (h *Handler) buildStatus(results map[string]ComponentHealth) Status {
	return Status{
		Status:    statusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
