// package server contains middleware & handlers for the starify login backend
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/session"
	"github.com/grantshandy/starify/internal/shared"
)

const (
	defaultResolveTimeout = 2 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, session resolution, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the login backend.
// Implementations handle a group of endpoints (login flow, JSON API).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures a [Server].
type Options struct {
	Backend        *auth.Backend
	Sessions       *session.Issuer
	Config         shared.ServerConfig
	ResolveTimeout time.Duration
	LoginRate      float64
	LoginBurst     int
	Logger         *log.Logger
}

// Server is the HTTP surface of the login backend.
type Server struct {
	router *BasicRouter
	logger *log.Logger
}

// New wires the login flow, the session middleware and the JSON API into one router.
func New(opts Options) (*Server, error) {
	if opts.Backend == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("%w: server needs a backend and a session issuer", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = defaultResolveTimeout
	}
	if opts.Config.AuthenticatedRoute == "" {
		opts.Config.AuthenticatedRoute = "/me"
	}
	if opts.Config.AnonymousRoute == "" {
		opts.Config.AnonymousRoute = "/"
	}

	logger := shared.WithLogger(opts.Logger, "component", "http")
	limiter := NewRateLimiter(opts.LoginRate, opts.LoginBurst, defaultMaxLimiters)

	router := NewBasicRouter()
	router.Use(RequestID(), AccessLog(logger))
	router.Handle(http.MethodGet, "/healthz", healthHandler(opts.Backend))

	router.Handler(NewAuthHandler(opts.Backend, opts.Sessions, limiter, opts.Config, logger))

	router.Use(Sessions(opts.Sessions, opts.Backend, opts.ResolveTimeout, logger))
	router.Handler(NewAPIHandler(opts.Backend, logger))

	return &Server{router: router, logger: logger}, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve is [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", lis.Addr().String())
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
