// package server contains middleware & handlers for the related artists web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// shutdownTimeout bounds how long in-flight requests may run after shutdown begins.
const shutdownTimeout = 5 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the related artists service.
// Implementations handle specific endpoints (authorization, discovery).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
	Wait(ctx context.Context) error                   // Wait blocks until work started by handlers has settled
}

// Server runs an [http.Server] until its context ends.
type Server struct {
	srv          *http.Server
	router       Router
	drainTimeout time.Duration
	logger       *log.Logger
}

// New creates a [Server] listening on addr.
func New(addr string, router Router, logger *log.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router:       router,
		drainTimeout: shutdownTimeout,
		logger:       logger,
	}
}

// WithDrainTimeout sets how long [Server.Run] waits for background work after the listener closes.
func (s *Server) WithDrainTimeout(d time.Duration) *Server {
	if d > 0 {
		s.drainTimeout = d
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), s.drainTimeout)
	defer cancelDrain()
	if err := s.router.Wait(drainCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
