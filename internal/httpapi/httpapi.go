// Package httpapi exposes a read-only HTTP surface over the engine:
// health, Prometheus metrics, status, and entry listing/search for UI
// collaborators that prefer HTTP over the IPC socket. Mutating commands
// stay IPC-only.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.klb.dev/clipvault/internal/engine"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/message"
)

const previewLen = 120

// Server is the read-only HTTP listener.
type Server struct {
	eng     *engine.Engine
	version string
	srv     *http.Server
}

// New builds the server for the given listen address.
func New(addr string, eng *engine.Engine, version string) *Server {
	s := &Server{eng: eng, version: version}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/entries", s.handleEntries)
	r.Get("/v1/search", s.handleSearch)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving on a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("http api listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http api failed", "err", err)
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.eng.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.version,
		"status":  st,
	})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	entries := s.eng.List(limit, offset)
	writeJSON(w, http.StatusOK, wireEntries(entries))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 0)
	var entries []*history.Entry
	for e := range s.eng.Search(q) {
		entries = append(entries, e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, wireEntries(entries))
}

func wireEntries(entries []*history.Entry) []message.Entry {
	out := make([]message.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, WireEntry(e))
	}
	return out
}

// WireEntry converts a history entry to its wire projection.
func WireEntry(e *history.Entry) message.Entry {
	kinds := e.Snapshot.Kinds()
	strs := make([]string, len(kinds))
	for i, k := range kinds {
		strs[i] = string(k)
	}
	return message.Entry{
		ID:          e.ID,
		CapturedAt:  e.Snapshot.CapturedAt(),
		PrimaryKind: string(e.Snapshot.PrimaryKind()),
		Kinds:       strs,
		Pinned:      e.Pinned,
		Preview:     e.Snapshot.Preview(previewLen),
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
