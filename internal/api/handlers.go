package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"volguard/pkg/errors"
	"volguard/pkg/logger"

	"volguard/internal/domain/alert"
	"volguard/internal/domain/deviation"
	"volguard/internal/domain/option"
	alertsservice "volguard/internal/services/alerts"
	deviationservice "volguard/internal/services/deviation"
	reportservice "volguard/internal/services/report"
	riskservice "volguard/internal/services/risk"
)

const defaultLookback = 24 * time.Hour

// Handler serves the REST API over the analytics services
type Handler struct {
	risk       *riskservice.Service
	deviations *deviationservice.Service
	reports    *reportservice.Service
	gate       *alertsservice.Gate
	alerts     alert.Repository
	log        *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	risk *riskservice.Service,
	deviations *deviationservice.Service,
	reports *reportservice.Service,
	gate *alertsservice.Gate,
	alerts alert.Repository,
) *Handler {
	return &Handler{
		risk:       risk,
		deviations: deviations,
		reports:    reports,
		gate:       gate,
		alerts:     alerts,
		log:        logger.Get().With("component", "api"),
	}
}

// GetRiskSeries returns risk snapshots for charting.
// GET /api/v1/risk/{symbol}?period=1h&from=...&to=...
func (h *Handler) GetRiskSeries(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	series, err := h.risk.GetSeries(r.Context(), symbol, period, from, to)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    symbol,
		"period":    period,
		"from":      from,
		"to":        to,
		"snapshots": series,
	})
}

// GetLatestRisk returns the most recent snapshot for a symbol and period.
// GET /api/v1/risk/{symbol}/latest?period=1h
func (h *Handler) GetLatestRisk(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	snapshot, err := h.risk.GetLatest(r.Context(), symbol, period)
	if errors.Is(err, errors.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, snapshot)
}

// GetDeviations returns deviation records matching the query filters.
// GET /api/v1/deviations/{symbol}?period=1h&exchange=deribit&option_type=call&min_volume_change=50&anomalies_only=true
func (h *Handler) GetDeviations(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	filter := deviation.Filter{
		Symbol:   symbol,
		Period:   period,
		From:     from,
		To:       to,
		Exchange: r.URL.Query().Get("exchange"),
	}

	if v := r.URL.Query().Get("option_type"); v != "" {
		optType := option.Type(v)
		if !optType.Valid() {
			h.respondError(w, http.StatusBadRequest, errors.Newf("invalid option type %q", v))
			return
		}
		filter.OptionType = optType
	}

	if v := r.URL.Query().Get("min_volume_change"); v != "" {
		minChange, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, errors.Wrap(err, "invalid min_volume_change"))
			return
		}
		filter.MinVolumeChange = &minChange
	}

	filter.AnomaliesOnly = r.URL.Query().Get("anomalies_only") == "true"

	records, err := h.deviations.GetRecords(r.Context(), filter)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"period":  period,
		"count":   len(records),
		"records": records,
	})
}

// GetDeviationAlerts returns deviation alerts for a symbol and period.
// GET /api/v1/deviations/{symbol}/alerts?period=1h
func (h *Handler) GetDeviationAlerts(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	alerts, err := h.deviations.GetAlerts(r.Context(), symbol, period, from, to)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"period": period,
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// AcknowledgeDeviationAlert marks a deviation alert acknowledged.
// PUT /api/v1/deviations/alerts/{id}/acknowledge
func (h *Handler) AcknowledgeDeviationAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.deviations.AcknowledgeAlert(r.Context(), id)
	if errors.Is(err, errors.ErrAlertNotFound) {
		h.respondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged", "id": id})
}

// GetReport returns the aggregated analytics report.
// GET /api/v1/reports/{symbol}?period=1h&from=...&to=...
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.reports.BuildReport(r.Context(), symbol, period, from, to)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

// CompareExchanges contrasts per-exchange deviation activity.
// GET /api/v1/reports/{symbol}/exchanges?period=1h&from=...&to=...
func (h *Handler) CompareExchanges(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	period, err := parsePeriod(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	comparison, err := h.reports.CompareExchanges(r.Context(), symbol, period, from, to)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, comparison)
}

// GetAlerts returns open threshold alerts for a symbol.
// GET /api/v1/alerts/{symbol}
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	alerts, err := h.alerts.GetUnacknowledged(r.Context(), symbol)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"count":  len(alerts),
		"alerts": alerts,
	})
}

// AcknowledgeAlert marks a threshold alert acknowledged.
// PUT /api/v1/alerts/{id}/acknowledge
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.alerts.AcknowledgeAlert(r.Context(), id)
	if errors.Is(err, errors.ErrAlertNotFound) {
		h.respondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged", "id": id})
}

// ListThresholds returns all configured alert thresholds.
// GET /api/v1/thresholds
func (h *Handler) ListThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := h.alerts.ListThresholds(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(thresholds),
		"thresholds": thresholds,
	})
}

// thresholdUpdateRequest is the PUT body for threshold updates
type thresholdUpdateRequest struct {
	Attention float64 `json:"attention"`
	Warning   float64 `json:"warning"`
	Severe    float64 `json:"severe"`
	IsEnabled bool    `json:"is_enabled"`
}

// UpdateThreshold replaces the threshold bounds for an indicator and period.
// PUT /api/v1/thresholds/{indicator}/{period}
func (h *Handler) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	period, err := option.ParsePeriod(vars["period"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return
	}

	var req thresholdUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	threshold := &alert.Threshold{
		Indicator: alert.Indicator(vars["indicator"]),
		Period:    period,
		Attention: req.Attention,
		Warning:   req.Warning,
		Severe:    req.Severe,
		IsEnabled: req.IsEnabled,
	}

	if err := h.gate.UpdateThreshold(r.Context(), threshold); err != nil {
		if errors.Is(err, errors.ErrInvalidThreshold) || errors.Is(err, errors.ErrInvalidPeriod) {
			h.respondError(w, http.StatusBadRequest, err)
			return
		}
		h.respondError(w, http.StatusInternalServerError, err)
		return
	}

	h.respondJSON(w, http.StatusOK, threshold)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		h.log.Errorf("Request failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func parsePeriod(r *http.Request) (option.Period, error) {
	v := r.URL.Query().Get("period")
	if v == "" {
		v = option.Period1h.String()
	}
	return option.ParsePeriod(v)
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Add(-defaultLookback)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "invalid from timestamp")
		}
		from = parsed
	}

	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "invalid to timestamp")
		}
		to = parsed
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}

	return from, to, nil
}
