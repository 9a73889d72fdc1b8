// Package api exposes the resolution workflow over a small REST surface.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/resolvd-io/resolvd/internal/escalation"
	"github.com/resolvd-io/resolvd/internal/logbuf"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Resolver is the interface the API server needs from the workflow engine.
type Resolver interface {
	Run(ctx context.Context, t protocol.Ticket) protocol.FinalOutput
}

// EscalationLister reads persisted escalations.
type EscalationLister interface {
	List(filter escalation.Filter) ([]protocol.EscalationRow, error)
	Count(filter escalation.Filter) (int, error)
}

// LogQuerier abstracts log querying to avoid coupling to logbuf directly.
type LogQuerier interface {
	Select(q logbuf.Query) []logbuf.Entry
}

// Config holds API server configuration.
type Config struct {
	Host string
	Port int
	Key  string // API key for Bearer auth
}

// Server is the resolvd REST API server.
type Server struct {
	resolver Resolver
	escs     EscalationLister
	cfg      Config
	logger   *slog.Logger
	logs     LogQuerier
	srv      *http.Server
}

// NewServer creates a new API server. escs and logs may be nil.
func NewServer(resolver Resolver, escs EscalationLister, cfg Config, logger *slog.Logger, logs LogQuerier) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		resolver: resolver,
		escs:     escs,
		cfg:      cfg,
		logger:   logger,
		logs:     logs,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/tickets", s.requireAuth(s.handleResolveTicket))
	mux.HandleFunc("GET /api/escalations", s.requireAuth(s.handleListEscalations))
	mux.HandleFunc("GET /api/escalations/count", s.requireAuth(s.handleCountEscalations))
	mux.HandleFunc("GET /api/logs", s.requireAuth(s.handleGetLogs))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutCtx)
	}()

	s.logger.Info("api server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// --- Middleware ---

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key == "" {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.Key {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type resolveRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

func (s *Server) handleResolveTicket(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Subject == "" && req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subject or description is required"})
		return
	}

	out := s.resolver.Run(r.Context(), protocol.Ticket{
		Subject:     req.Subject,
		Description: req.Description,
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListEscalations(w http.ResponseWriter, r *http.Request) {
	if s.escs == nil {
		writeJSON(w, http.StatusOK, []protocol.EscalationRow{})
		return
	}

	filter, ok := s.parseEscalationFilter(w, r)
	if !ok {
		return
	}

	rows, err := s.escs.List(filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []protocol.EscalationRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCountEscalations(w http.ResponseWriter, r *http.Request) {
	if s.escs == nil {
		writeJSON(w, http.StatusOK, map[string]int{"count": 0})
		return
	}

	filter, ok := s.parseEscalationFilter(w, r)
	if !ok {
		return
	}

	count, err := s.escs.Count(filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) parseEscalationFilter(w http.ResponseWriter, r *http.Request) (escalation.Filter, bool) {
	filter := escalation.Filter{}
	if c := r.URL.Query().Get("category"); c != "" {
		cat, ok := protocol.ParseCategory(c)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
			return filter, false
		}
		filter.Category = &cat
	}
	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be RFC3339"})
			return filter, false
		}
		filter.Since = t
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = n
		}
	}
	return filter, true
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeJSON(w, http.StatusOK, []logbuf.Entry{})
		return
	}

	q := logbuf.Query{
		MinLevel: slog.LevelDebug,
		Limit:    200,
		RunID:    r.URL.Query().Get("run_id"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			q.Limit = n
		}
	}
	switch strings.ToLower(r.URL.Query().Get("level")) {
	case "info":
		q.MinLevel = slog.LevelInfo
	case "warn":
		q.MinLevel = slog.LevelWarn
	case "error":
		q.MinLevel = slog.LevelError
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if ms, err := strconv.ParseInt(since, 10, 64); err == nil {
			q.Since = time.UnixMilli(ms)
		}
	}

	entries := s.logs.Select(q)
	if entries == nil {
		entries = []logbuf.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
