package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/application/services/orchestration"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// Runner executes reports and refreshes for the handlers
type Runner interface {
	RunReport(ctx context.Context, key entities.ReportKey, opts orchestration.RunOptions) (*dto.RunResult, error)
	Refresh(ctx context.Context) (*dto.RefreshResult, error)
	Ping(ctx context.Context) error
}

// Server exposes the reports over HTTP
type Server struct {
	runner  Runner
	metrics http.Handler
	logger  *zap.Logger
}

// NewServer creates a server. metrics may be nil.
func NewServer(runner Runner, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{runner: runner, metrics: metrics, logger: logger}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{report}/process-data", s.processData)
	mux.HandleFunc("POST /api/{report}/process-data", s.processData)
	mux.HandleFunc("POST /api/refresh", s.refresh)
	mux.HandleFunc("GET /healthz", s.healthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return cors(s.logRequests(mux))
}

// cors sets permissive headers on every response and answers preflight requests
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// runSummary is the status body of a report run
type runSummary struct {
	Message string         `json:"message"`
	Result  *dto.RunResult `json:"result"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (s *Server) processData(w http.ResponseWriter, r *http.Request) {
	key := entities.ReportKey(r.PathValue("report"))
	opts := orchestration.RunOptions{DryRun: queryFlag(r, "dry_run")}

	result, err := s.runner.RunReport(r.Context(), key, opts)
	if err != nil {
		s.fail(w, err, "An error occurred while processing the data.")
		return
	}

	if queryFlag(r, "records") {
		records := result.Records
		if records == nil {
			records = []entities.ClassifiedRecord{}
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	summary := *result
	summary.Records = nil
	summary.Decisions = nil
	writeJSON(w, http.StatusOK, runSummary{Message: "Data processed successfully.", Result: &summary})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Refresh(r.Context())
	if err != nil {
		s.fail(w, err, "An error occurred while refreshing the data.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "unhealthy", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestration.ErrUnknownReport):
		status = http.StatusNotFound
		message = "Unknown report."
	case errors.Is(err, orchestration.ErrRunInProgress):
		status = http.StatusConflict
		message = "A run is already in progress."
	case errors.Is(err, orchestration.ErrRefreshUnavailable):
		status = http.StatusNotImplemented
		message = "Refresh is not available."
	default:
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Message: message, Error: err.Error()})
}

func queryFlag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
