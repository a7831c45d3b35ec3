// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/assemble"
	"github.com/pdiddy/evidence-engine/internal/followup"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/research"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Routes.
const (
	RouteBundle  = "/api/research/bundle"
	RouteTrials  = "/api/trials/search"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Researcher is the engine surface the routes need.
type Researcher interface {
	Bundle(ctx context.Context, req research.BundleRequest) (assemble.Bundle, error)
	SearchTrials(ctx context.Context, req research.TrialRequest) (research.TrialResult, error)
}

// Options wires the ambient dependencies. Nil fields get defaults.
type Options struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type Server struct {
	engine  Researcher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns the HTTP handler for engine.
func New(engine Researcher, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{engine: engine, logger: opts.Logger, metrics: opts.Metrics}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteBundle, s.handleBundle)
	mux.HandleFunc(RouteTrials, s.handleTrials)
	mux.HandleFunc(RouteHealth, s.handleHealth)
	mux.Handle(RouteMetrics, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	return s.instrument(mux)
}

type bundleRequest struct {
	Query   string `json:"query"`
	Filters struct {
		Countries []string `json:"countries"`
	} `json:"filters"`
	Audience string `json:"audience"`
}

// handleBundle never fails once the request is valid: engine errors and
// panics degrade to an empty bundle with status 200.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req bundleRequest
	if err := decodeValid(r, bundleSchema, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	audience, err := followup.ParseAudience(req.Audience)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bundle, err := s.bundle(r.Context(), research.BundleRequest{
		Query:     req.Query,
		Countries: req.Filters.Countries,
		Audience:  audience,
	})
	switch {
	case errors.Is(err, research.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.logger.Error("bundle degraded to empty result",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, assemble.EmptyBundle(time.Since(start)))
	default:
		writeJSON(w, http.StatusOK, bundle)
	}
}

func (s *Server) bundle(ctx context.Context, req research.BundleRequest) (b assemble.Bundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bundle panicked: %v", r)
		}
	}()
	return s.engine.Bundle(ctx, req)
}

type trialsRequest struct {
	Query   string   `json:"query"`
	Phase   string   `json:"phase"`
	Status  string   `json:"status"`
	Country string   `json:"country"`
	Genes   []string `json:"genes"`
	Source  string   `json:"source"`
}

// handleTrials reports failures: bad filters are 400, anything else 500.
func (s *Server) handleTrials(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req trialsRequest
	if err := decodeValid(r, trialsSchema, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.engine.SearchTrials(r.Context(), research.TrialRequest{
		Query:   req.Query,
		Phase:   req.Phase,
		Status:  req.Status,
		Country: req.Country,
		Genes:   req.Genes,
		Source:  req.Source,
	})
	switch {
	case errors.Is(err, research.ErrEmptyQuery),
		errors.Is(err, research.ErrInvalidRequest),
		errors.Is(err, research.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.logger.Error("trial search failed",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// decodeValid reads the body, validates it against schema, and decodes it
// into dst. An empty body is treated as {}.
func decodeValid(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	blob, err := readBody(r)
	if err != nil {
		return err
	}
	if err := validate(schema, blob); err != nil {
		return err
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	if len(blob) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return false
	}
	return true
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument assigns a request id, recovers panics into a 500, and records
// one log line and one metric sample per request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panicked",
					zap.String("request_id", id),
					zap.Any("panic", p),
				)
				writeError(rec, http.StatusInternalServerError, errors.New("internal error"))
			}
			took := time.Since(start)
			route := routeLabel(r.URL.Path)
			s.metrics.ObserveHTTP(route, strconv.Itoa(rec.status), took)
			if route != RouteMetrics && route != RouteHealth {
				s.logger.Info("request",
					zap.String("request_id", id),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", rec.status),
					zap.Duration("took", took),
				)
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// routeLabel keeps metric label cardinality bounded.
func routeLabel(path string) string {
	switch path {
	case RouteBundle, RouteTrials, RouteHealth, RouteMetrics:
		return path
	}
	return "other"
}

// ListenAndServe serves h on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, cfg types.ServerConfig, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
