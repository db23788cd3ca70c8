package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/guttosm/bundle-service/internal/logger"
)

const (
	defaultWriteTimeout    = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server is the HTTP listener of the service. Run serves until its context
// ends, then drains connections and runs the shutdown hooks.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	onShutdown      []func(context.Context) error

	ready chan struct{}
	addr  string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWriteTimeout raises the write timeout. It never drops below the default,
// so a cart submission deadline longer than it still gets its response out.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > s.httpServer.WriteTimeout {
			s.httpServer.WriteTimeout = d
		}
	}
}

// WithShutdownTimeout bounds the drain plus the shutdown hooks.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithShutdownHook registers fn to run after the listener has drained.
// Hooks run in registration order.
func WithShutdownHook(fn func(context.Context) error) ServerOption {
	return func(s *Server) {
		s.onShutdown = append(s.onShutdown, fn)
	}
}

// NewServer creates a server for handler on port. Port "0" picks a free one.
func NewServer(handler http.Handler, port string, opts ...ServerOption) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		shutdownTimeout: defaultShutdownTimeout,
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address. Only valid after Ready is closed.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves until ctx is done or the listener fails. A listener failure is
// returned; a cancelled ctx leads to a graceful Shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.addr = ln.Addr().String()
	close(s.ready)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()
	logger.Logger().Info().Str("addr", s.addr).Msg("Server started")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Logger().Info().Err(context.Cause(ctx)).Msg("Shutting down")
	}
	return s.Shutdown()
}

// Shutdown drains the listener, then runs the shutdown hooks. Hook failures
// are logged; only a drain failure is returned.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("Connections did not drain in time")
	}

	for i, hook := range s.onShutdown {
		if hookErr := hook(ctx); hookErr != nil {
			logger.Logger().Warn().Err(hookErr).Int("hook", i).Msg("Shutdown hook failed")
		}
	}

	if err != nil {
		return err
	}
	logger.Logger().Info().Msg("Server stopped")
	return nil
}
