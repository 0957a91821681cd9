// Package server provides the HTTP API for docdex.
//
// The server holds owned references to one embedder and one loaded search
// service, injected at construction and swapped atomically after a rebuild.
// Until a service is attached the server is in an explicit not-ready state:
// search requests get a retryable 503, never a half-initialized answer.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/search"
)

// Config configures the HTTP server.
type Config struct {
	Host        string
	Port        int
	DefaultTopK int
}

// Server is the docdex HTTP API.
type Server struct {
	config   Config
	embedder embed.Embedder
	expander search.Expander // optional; nil disables expansion
	logger   *slog.Logger

	mu      sync.RWMutex
	service *search.Service // nil while not ready

	httpServer *http.Server
}

// New creates a server with the given dependencies. The expander may be nil.
// The server starts not-ready; attach a service with SetService.
func New(cfg Config, embedder embed.Embedder, expander search.Expander, logger *slog.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		embedder: embedder,
		expander: expander,
		logger:   logger,
	}
}

// SetService atomically swaps in a ready-to-search service. Passing a
// freshly built or reloaded service transitions the server to ready;
// in-flight searches keep using the service they started with.
func (s *Server) SetService(svc *search.Service) {
	s.mu.Lock()
	s.service = svc
	s.mu.Unlock()
}

// currentService returns the attached service, or nil while not ready.
func (s *Server) currentService() *search.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/search", s.handleSearch)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server_listening", slog.String("addr", addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
