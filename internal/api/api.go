// Package api serves a block store over HTTP. The routes mirror what the
// remote client expects:
//
//	GET  <prefix>/health
//	GET  <prefix>/day/{date}
//	POST <prefix>/block
//	POST <prefix>/bulk
//	GET  <prefix>/categories
//	GET  <prefix>/summary/{date}
//	GET  <prefix>/trend?from=&to=
//	GET  <prefix>/suggestions/{date}
//	GET  <prefix>/stats
//
// Prometheus metrics are served at /metrics outside the prefix.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
	"github.com/sadopc/focusring/internal/errs"
	"github.com/sadopc/focusring/internal/store"
	"github.com/sadopc/focusring/internal/suggest"
	"github.com/sadopc/focusring/internal/summary"
)

// Body limits for POST /block and POST /bulk.
const (
	maxRequestBodySize = 1 << 16
	maxBulkBodySize    = 1 << 20
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Backend is the storage the server reads and writes.
type Backend interface {
	GetDay(ctx context.Context, date string) (day.Snapshot, error)
	GetRange(ctx context.Context, from, to string) ([]day.Snapshot, error)
	SetBlock(ctx context.Context, date string, slot int, u day.Update) error
	Catalog(ctx context.Context) (catalog.Catalog, error)
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReader is implemented by backends that can describe their contents.
type StatsReader interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// BlockRequest is the POST /block body. Update carries the tri-state
// fields and is decoded from the same object.
type BlockRequest struct {
	Date   string
	Slot   int
	Update day.Update
}

func (r BlockRequest) MarshalJSON() ([]byte, error) {
	fields, err := json.Marshal(r.Update)
	if err != nil {
		return nil, err
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(fields, &m); err != nil {
		return nil, err
	}
	m["date"], _ = json.Marshal(r.Date)
	m["slot_index"], _ = json.Marshal(r.Slot)
	return json.Marshal(m)
}

func (r *BlockRequest) UnmarshalJSON(data []byte) error {
	var key struct {
		Date *string `json:"date"`
		Slot *int    `json:"slot_index"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return err
	}
	if key.Date == nil || key.Slot == nil {
		return errors.New("date and slot_index are required")
	}
	r.Date, r.Slot = *key.Date, *key.Slot
	return r.Update.UnmarshalJSON(data)
}

// BulkRequest is the POST /bulk body.
type BulkRequest struct {
	Blocks []BlockRequest `json:"blocks"`
}

// BulkResponse counts the blocks written. Entries with an invalid slot,
// focus or memo are skipped and not counted.
type BulkResponse struct {
	Processed int `json:"processed"`
	Requested int `json:"requested"`
}

// StatsResponse is the GET /stats body.
type StatsResponse struct {
	Database    store.Stats `json:"database"`
	CurrentDate string      `json:"current_date"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type metrics struct {
	requests    *prometheus.CounterVec
	blockWrites *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focusring",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		blockWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "focusring",
			Name:      "block_writes_total",
			Help:      "Block writes by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.blockWrites)
	return m
}

// Server implements the HTTP API over a Backend.
type Server struct {
	backend  Backend
	advice   suggest.Source
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

// NewServer builds a server with its own metrics registry. A nil logger
// uses slog.Default().
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		backend:  backend,
		advice:   suggest.Local{Days: backend, Categories: backend},
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Handler returns a mux with all routes mounted under prefix.
func (s *Server) Handler(prefix string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	mux := http.NewServeMux()
	s.route(mux, "GET "+prefix+"/health", "health", s.handleHealth)
	s.route(mux, "GET "+prefix+"/day/{date}", "day", s.handleDay)
	s.route(mux, "POST "+prefix+"/block", "block", s.handleBlock)
	s.route(mux, "POST "+prefix+"/bulk", "bulk", s.handleBulk)
	s.route(mux, "GET "+prefix+"/categories", "categories", s.handleCategories)
	s.route(mux, "GET "+prefix+"/summary/{date}", "summary", s.handleSummary)
	s.route(mux, "GET "+prefix+"/trend", "trend", s.handleTrend)
	s.route(mux, "GET "+prefix+"/suggestions/{date}", "suggestions", s.handleSuggestions)
	s.route(mux, "GET "+prefix+"/stats", "stats", s.handleStats)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		s.metrics.requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("http request",
			slog.String("route", name),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.String("request_id", id),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps classified errors to a status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errs.CodeOf(err) {
	case errs.InvalidArgument:
		status = http.StatusBadRequest
	case errs.NotFound:
		status = http.StatusNotFound
	case errs.Conflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.backend.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	snap, err := s.backend.GetDay(r.Context(), r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Blocks)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		s.writeError(w, r, errs.E("read body", errs.InvalidArgument, err))
		return
	}
	var req BlockRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, errs.E("decode block", errs.InvalidArgument, err))
		return
	}

	if err := s.backend.SetBlock(r.Context(), req.Date, req.Slot, req.Update); err != nil {
		s.metrics.blockWrites.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return
	}
	s.metrics.blockWrites.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "date": req.Date, "slot_index": req.Slot})
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBulkBodySize))
	if err != nil {
		s.writeError(w, r, errs.E("read body", errs.InvalidArgument, err))
		return
	}
	var req BulkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, errs.E("decode bulk", errs.InvalidArgument, err))
		return
	}
	if len(req.Blocks) == 0 {
		s.writeError(w, r, errs.Errorf("bulk", errs.InvalidArgument, "no blocks given"))
		return
	}
	for _, b := range req.Blocks {
		if _, err := day.ParseDate(b.Date); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	resp := BulkResponse{Requested: len(req.Blocks)}
	for _, b := range req.Blocks {
		err := s.backend.SetBlock(r.Context(), b.Date, b.Slot, b.Update)
		switch {
		case err == nil:
			s.metrics.blockWrites.WithLabelValues("ok").Inc()
			resp.Processed++
		case errs.Is(err, errs.InvalidArgument):
			s.metrics.blockWrites.WithLabelValues("skipped").Inc()
			s.logger.Debug("skip bulk block",
				slog.String("date", b.Date),
				slog.Int("slot_index", b.Slot),
				slog.String("error", err.Error()))
		default:
			s.metrics.blockWrites.WithLabelValues("error").Inc()
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cat, err := s.backend.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat.All())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := s.backend.Catalog(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.backend.GetDay(ctx, r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Compute(snap, cat))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	dates, err := day.DateRange(from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(dates) > summary.MaxTrendDays {
		s.writeError(w, r, errs.Errorf("trend", errs.InvalidArgument,
			"range of %d days exceeds %d", len(dates), summary.MaxTrendDays))
		return
	}
	cat, err := s.backend.Catalog(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := s.backend.GetRange(ctx, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Trend(days, cat))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	a, err := s.advice.Suggestions(r.Context(), r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sr, ok := s.backend.(StatsReader)
	if !ok {
		s.writeError(w, r, errs.Errorf("stats", errs.NotFound, "stats are not available for this backend"))
		return
	}
	st, err := sr.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Database: st, CurrentDate: day.FormatDate(time.Now())})
}
