// Package server serves the parse engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/neurofold/internal/buffers"
	"github.com/ppiankov/neurofold/internal/engine"
	"github.com/ppiankov/neurofold/internal/logtypes"
	"github.com/ppiankov/neurofold/internal/metrics"
	"github.com/ppiankov/neurofold/internal/report"
)

const maxRequestBytes = 10 << 20 // 10MB

// APIVersion is incremented on breaking changes to the HTTP API.
const APIVersion = 1

// recentRuns bounds the history served by /api/v1/runs.
const recentRuns = 100

// RunRecord describes one parsed request body.
type RunRecord struct {
	Source   string              `json:"source"`
	Received time.Time           `json:"received"`
	Bytes    int                 `json:"bytes"`
	Lines    int                 `json:"lines"`
	Relevant int                 `json:"relevant"`
	Records  int                 `json:"records"`
	Dropped  int                 `json:"dropped"`
	Summary  logtypes.RunSummary `json:"summary"`
}

// Server is the HTTP API server.
type Server struct {
	httpSrv *http.Server
	engine  *engine.Engine
	metrics *metrics.Metrics
	runs    *buffers.Ring[RunRecord]
	version string
}

// New creates a server bound to addr. metrics may be nil. gatherer backs
// /metrics and defaults to the global Prometheus registry.
func New(addr string, eng *engine.Engine, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		engine:  eng,
		metrics: m,
		runs:    buffers.NewRing[RunRecord](recentRuns),
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/parse", s.handleParse)
	mux.HandleFunc("POST /api/v1/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/runs", s.handleRuns)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// SetVersion sets the application version reported by /api/version.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Serve accepts connections on a listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpSrv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	if relevant, _ := strconv.ParseBool(r.URL.Query().Get("relevant")); relevant {
		res = res.OnlyRelevant()
	}
	writeJSON(w, res)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "request"
	}
	writeJSON(w, report.Build(source, res))
}

// handleRuns lists recently parsed bodies, newest first. The ETag is the
// ring version, so pollers get 304 until the next parse.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	etag := `"` + strconv.Itoa(s.runs.Version()) + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)

	snap := s.runs.Snapshot()
	for i, j := 0, len(snap)-1; i < j; i, j = i+1, j-1 {
		snap[i], snap[j] = snap[j], snap[i]
	}
	writeJSON(w, snap)
}

// parseBody reads the request body and parses it. On failure it has already
// written the error response.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*engine.Result, bool) {
	if s.metrics != nil {
		s.metrics.ActiveRequests.Inc()
		defer s.metrics.ActiveRequests.Dec()
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject("too_large")
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		s.reject("read")
		http.Error(w, fmt.Sprintf("read body: %v", err), http.StatusBadRequest)
		return nil, false
	}

	start := time.Now()
	res := s.engine.Parse(string(body))
	if s.metrics != nil {
		s.metrics.Observe(res, len(body), time.Since(start))
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "request"
	}
	s.runs.Push(RunRecord{
		Source:   source,
		Received: start.UTC(),
		Bytes:    len(body),
		Lines:    len(res.Lines),
		Relevant: len(res.RelevantLines()),
		Records:  len(res.Metrics),
		Dropped:  len(res.Dropped),
		Summary:  res.Summary,
	})
	return res, true
}

func (s *Server) reject(reason string) {
	if s.metrics != nil {
		s.metrics.ParseErrors.WithLabelValues(reason).Inc()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	v := s.version
	if v == "" {
		v = "dev"
	}
	writeJSON(w, struct {
		Version string `json:"version"`
		API     int    `json:"api"`
	}{
		Version: v,
		API:     APIVersion,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
