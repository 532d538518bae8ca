// Package chi serves the status API: health, metrics and current usage.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trafficwatch/internal/domain"
	domusage "github.com/kailas-cloud/trafficwatch/internal/domain/usage"
	"github.com/kailas-cloud/trafficwatch/internal/metrics"
	healthuc "github.com/kailas-cloud/trafficwatch/internal/usecase/health"
	usageuc "github.com/kailas-cloud/trafficwatch/internal/usecase/usage"
)

// ErrorCode is a machine-readable error code in API error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// ThresholdStatus is one threshold in UsageResponse.
type ThresholdStatus struct {
	Percent string `json:"percent"`
	Sent    bool   `json:"sent"`
}

// UsageResponse is the body of GET /api/v1/usage.
type UsageResponse struct {
	Period       string            `json:"period"`
	UsedGB       float64           `json:"used_gb"`
	QuotaGB      float64           `json:"quota_gb"`
	RemainingGB  float64           `json:"remaining_gb"`
	Percent      float64           `json:"percent"`
	IsExhausted  bool              `json:"is_exhausted"`
	NextReset    string            `json:"next_reset"`
	LastReport   *string           `json:"last_report,omitempty"`
	LastResetDay *int              `json:"last_reset_day,omitempty"`
	Thresholds   []ThresholdStatus `json:"thresholds"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the status API.
type Server struct {
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates a status API server.
func NewServer(usage *usageuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{usage: usage, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
	}
	return s
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/api/v1/usage", s.GetUsage)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	return r
}

// GetUsage handles GET /api/v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	report, err := s.usage.GetReport(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func usageToResponse(report *domusage.Report) UsageResponse {
	resp := UsageResponse{
		Period:      report.Period().String(),
		UsedGB:      report.UsedGB(),
		QuotaGB:     report.QuotaGB(),
		RemainingGB: report.RemainingGB(),
		Percent:     report.Percent(),
		IsExhausted: report.IsExhausted(),
		NextReset:   string(report.NextReset()),
		Thresholds:  make([]ThresholdStatus, 0, len(report.Thresholds())),
	}
	if d := report.LastReport(); !d.IsZero() {
		s := string(d)
		resp.LastReport = &s
	}
	if day := report.LastResetDay(); day > 0 {
		resp.LastResetDay = &day
	}
	for _, ts := range report.Thresholds() {
		resp.Thresholds = append(resp.Thresholds, ThresholdStatus{Percent: ts.Threshold.Label(), Sent: ts.Sent})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel's message, never the wrapped details.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
