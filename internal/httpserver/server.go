package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"astro-partner/internal/astro"
	"astro-partner/internal/cache"
	"astro-partner/internal/metrics"
	"astro-partner/internal/repo"
	"astro-partner/internal/session"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies exposes core components to the admin handlers.
type Dependencies struct {
	Store   repo.Store
	Redis   *cache.Redis
	Astro   *astro.Client
	Session *session.Manager
}

// Server wraps an http.Server with the ops routes: health, metrics and a
// small admin surface.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
	basePath   string
}

// New creates a new HTTP server listening on addr.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, basePath string) *Server {
	server := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		basePath: normaliseBasePath(basePath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", server.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/admin/refresh-profile", server.handleRefreshProfile)
	mux.HandleFunc("/admin/session", server.handleSession)

	handler := mountWithBasePath(server.basePath, mux)

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if server.basePath != "" {
		server.logger.Info("http server configured with base path", "base_path", server.basePath)
	}

	return server
}

// SetDependencies makes dependencies accessible to handlers.
func (s *Server) SetDependencies(deps Dependencies) {
	s.deps = deps
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "ok"
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			s.logger.Warn("store ping failed", "error", err)
			status = "degraded"
		}
	}
	writeJSON(w, map[string]string{"status": status})
}

// handleRefreshProfile forces a cache-bypassing profile fetch for the
// logged-in phone number.
func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Astro == nil || s.deps.Session == nil {
		http.Error(w, "backend client unavailable", http.StatusServiceUnavailable)
		return
	}

	phoneNumber, err := s.deps.Session.PhoneNumber(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			http.Error(w, "no logged-in phone number", http.StatusNotFound)
			return
		}
		s.logger.Error("failed resolving session phone number", "error", err)
		http.Error(w, "failed resolving session", http.StatusInternalServerError)
		return
	}

	profile, err := s.deps.Astro.GetProfile(r.Context(), phoneNumber, true)
	if err != nil {
		s.logger.Error("failed refreshing profile", "error", err, "phone_number", phoneNumber)
		http.Error(w, "failed refreshing profile", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{
		"status":       "ok",
		"phone_number": phoneNumber,
		"full_name":    profile.FullName,
		"chat_status":  profile.ChatOnline(),
		"call_status":  profile.CallOnline(),
	})
}

// handleSession reports the stored session phone number for debugging.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Session == nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	phoneNumber, err := s.deps.Session.PhoneNumber(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			writeJSON(w, map[string]any{"logged_in": false})
			return
		}
		http.Error(w, "failed reading session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"logged_in": true, "phone_number": phoneNumber})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}

func mountWithBasePath(basePath string, handler http.Handler) http.Handler {
	if basePath == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, basePath) {
			http.NotFound(w, r)
			return
		}
		if len(r.URL.Path) > len(basePath) && r.URL.Path[len(basePath)] != '/' {
			http.NotFound(w, r)
			return
		}
		trimmed := strings.TrimPrefix(r.URL.Path, basePath)
		if trimmed == "" {
			trimmed = "/"
		}
		r.URL.Path = trimmed
		handler.ServeHTTP(w, r)
	})
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
