package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config is the configuration the status server depends on
type Config interface {
	StatusAddr() string
}

// Server serves the status endpoints. It is disabled when no address is configured.
type Server struct {
	logger  *zap.Logger
	addr    string
	handler *Handler

	srv *http.Server
	ln  net.Listener
}

// NewServer creates a status server listening on cfg.StatusAddr
func NewServer(logger *zap.Logger, cfg Config, handler *Handler) *Server {
	return &Server{
		logger:  logger,
		addr:    cfg.StatusAddr(),
		handler: handler,
	}
}

// Start binds the listener synchronously and serves in the background
func (s *Server) Start(ctx context.Context) error {
	if s.addr == "" {
		s.logger.Debug("Status server disabled")
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status server listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler.SetupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server error", zap.Error(err))
		}
	}()

	s.logger.Info("Status server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, empty when the server is not running
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down gracefully; a no-op when it never started
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.logger.Info("Status server stopped")
	return nil
}
