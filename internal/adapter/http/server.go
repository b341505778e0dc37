// Package http exposes the aggregation operations, health, readiness, and
// metrics over HTTP. Aggregation endpoints always answer 200 with in-band
// degradation; 400 is reserved for malformed request parameters.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/enviro-risk-service/internal/aggregator"
	"github.com/couchcryptid/enviro-risk-service/internal/domain"
)

// Aggregator is the set of operations the server routes to.
type Aggregator interface {
	Snapshot(ctx context.Context, lat, lon *float64) aggregator.SnapshotResponse
	ListSensors(ctx context.Context, query aggregator.SensorQuery) aggregator.SensorListResponse
	PredictRisk(ctx context.Context, lat, lon float64) aggregator.RiskResponse
	LegacyStatus(ctx context.Context, zipCode string) aggregator.StatusResponse
	CheckReadiness(ctx context.Context) error
}

// Server exposes the aggregation API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	service    Aggregator
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, service Aggregator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestLogging(logger, mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /environmental-data", s.handleSnapshot)
	mux.HandleFunc("GET /api/sensors", s.handleSensors)
	mux.HandleFunc("GET /api/risk/point", s.handleRisk)
	mux.HandleFunc("GET /api/status/{zipcode}", s.handleStatus)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	lat, ok := optionalFloat(r, "lat")
	if !ok {
		writeBadRequest(w, "invalid lat parameter")
		return
	}
	lon, ok := optionalFloat(r, "lon")
	if !ok {
		writeBadRequest(w, "invalid lon parameter")
		return
	}

	writeJSON(w, http.StatusOK, s.service.Snapshot(r.Context(), lat, lon))
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	minLat, okA := optionalFloat(r, "min_lat")
	minLon, okB := optionalFloat(r, "min_lon")
	maxLat, okC := optionalFloat(r, "max_lat")
	maxLon, okD := optionalFloat(r, "max_lon")
	lat, okE := optionalFloat(r, "lat")
	lon, okF := optionalFloat(r, "lon")
	if !okA || !okB || !okC || !okD || !okE || !okF {
		writeBadRequest(w, "invalid coordinate parameter")
		return
	}

	query := aggregator.SensorQuery{Lat: lat, Lon: lon}
	if minLat != nil && minLon != nil && maxLat != nil && maxLon != nil {
		query.Bounds = &domain.BoundingBox{
			MinLat: *minLat, MinLon: *minLon,
			MaxLat: *maxLat, MaxLon: *maxLon,
		}
	}

	writeJSON(w, http.StatusOK, s.service.ListSensors(r.Context(), query))
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	lat, okA := optionalFloat(r, "lat")
	lon, okB := optionalFloat(r, "lon")
	if !okA || !okB {
		writeBadRequest(w, "invalid coordinate parameter")
		return
	}
	if lat == nil || lon == nil {
		writeBadRequest(w, "lat and lon parameters are required")
		return
	}

	writeJSON(w, http.StatusOK, s.service.PredictRisk(r.Context(), *lat, *lon))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LegacyStatus(r.Context(), r.PathValue("zipcode")))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// optionalFloat reads a query parameter as a float. Absent parameters return
// (nil, true); present-but-unparseable parameters return (nil, false).
func optionalFloat(r *http.Request, name string) (*float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogging tags each request with an id and logs method, path, status,
// and duration on completion. Metrics scrapes are skipped to keep the logs
// readable.
func requestLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		logger.Info("request handled",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
