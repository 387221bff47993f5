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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/engine"
	"github.com/logsift/logsift/internal/model"
	"github.com/logsift/logsift/internal/sources"
	"github.com/logsift/logsift/internal/storage"
)

// Server is the network-facing request layer: it parses requests, delegates
// to the engine, and maps results to HTTP status codes. It owns no state of
// its own.
type Server struct {
	pipeline *engine.Pipeline
	query    *engine.QueryEngine
	stats    *engine.StatsAggregator
	alerts   *engine.AlertService
	registry *sources.Registry
	origins  []string
	logger   *zap.Logger
	parser   fastjson.ParserPool
	srv      *http.Server
}

// New wires the request layer.
func New(pipeline *engine.Pipeline, query *engine.QueryEngine, stats *engine.StatsAggregator,
	alerts *engine.AlertService, registry *sources.Registry, origins []string,
	logger *zap.Logger) *Server {

	return &Server{
		pipeline: pipeline,
		query:    query,
		stats:    stats,
		alerts:   alerts,
		registry: registry,
		origins:  origins,
		logger:   logger,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/ingest/log", s.handleIngestLog).Methods(http.MethodPost)
	r.HandleFunc("/api/ingest/batch", s.handleIngestBatch).Methods(http.MethodPost)

	r.HandleFunc("/api/query/recent", s.handleRecent).Methods(http.MethodGet)
	r.HandleFunc("/api/query/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/query/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/query/export", s.handleExport).Methods(http.MethodGet)

	r.HandleFunc("/api/alerts", s.handleAlerts).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts/{id}/acknowledge", s.handleAcknowledge).Methods(http.MethodPost)

	r.HandleFunc("/api/sources", s.handleSources).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIngestLog processes a single JSON log event.
func (s *Server) handleIngestLog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read body")
		return
	}
	defer r.Body.Close()

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := s.pipeline.Process(r.Context(), eventFromJSON(v))
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Log entry processed successfully",
		"id":      result.ID,
	})
}

// handleIngestBatch processes {"logs": [...]}. Invalid entries are rejected
// individually; valid entries in the same batch are still ingested.
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read body")
		return
	}
	defer r.Body.Close()

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	logs := v.Get("logs")
	if logs == nil || logs.Type() != fastjson.TypeArray {
		writeError(w, http.StatusBadRequest, "Invalid batch format")
		return
	}

	arr, _ := logs.Array()
	ids := make([]string, 0, len(arr))
	rejected := 0
	for _, entry := range arr {
		result, err := s.pipeline.Process(r.Context(), eventFromJSON(entry))
		if err != nil {
			rejected++
			continue
		}
		ids = append(ids, result.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("%d logs ingested successfully", len(ids)),
		"ids":      ids,
		"rejected": rejected,
	})
}

// handleRecent returns the newest events, no filter.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	logs := s.query.Query(engine.QueryOptions{Limit: parseLimit(r)})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

// handleSearch filters by message substring and an inclusive time range.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("query")
	if text == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	opts := engine.QueryOptions{
		Text:  text,
		Limit: parseLimit(r),
	}
	if from, ok := parseTime(q.Get("from")); ok {
		opts.From = &from
	}
	if to, ok := parseTime(q.Get("to")); ok {
		opts.To = &to
	}

	logs := s.query.Query(opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   s.stats.Compute(),
	})
}

// handleExport streams the retention snapshot as gzip NDJSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="logs.ndjson.gz"`)
	if err := storage.WriteArchive(w, s.query.Snapshot()); err != nil {
		s.logger.Warn("export failed", zap.Error(err))
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	filter := engine.AlertFilter{}
	switch r.URL.Query().Get("acknowledged") {
	case "true":
		acked := true
		filter.Acknowledged = &acked
	case "false":
		acked := false
		filter.Acknowledged = &acked
	}

	alerts := s.alerts.List(filter, parseLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(alerts),
		"alerts":  alerts,
	})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.alerts.Acknowledge(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": fmt.Sprintf("Alert %s not found", id),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Alert %s acknowledged", id),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(list),
		"sources": list,
	})
}

func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, "Invalid log format")
		return
	}
	s.logger.Error("ingest failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Failed to ingest log")
}

// eventFromJSON maps one parsed log object to a raw event. Missing fields
// stay zero; the pipeline validates and defaults them.
func eventFromJSON(v *fastjson.Value) model.LogEvent {
	ev := model.LogEvent{
		Source:    string(v.GetStringBytes("source")),
		Message:   string(v.GetStringBytes("message")),
		User:      string(v.GetStringBytes("user")),
		RequestID: string(v.GetStringBytes("requestId")),
	}
	if ts, ok := parseTime(string(v.GetStringBytes("timestamp"))); ok {
		ev.Timestamp = ts
	}
	return ev
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 0 // engine applies its default
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
