// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server wraps the gin engine and the http.Server lifecycle.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     zerolog.Logger

	shutdownTimeout time.Duration
}

// New creates a Server with the standard middleware chain and all
// routes registered.
func New(addr string, shutdownTimeout time.Duration, handlers *Handlers, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(gin.Recovery())

	handlers.Register(router)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
		logger:          logger.With().Str("component", "server").Logger(),
		shutdownTimeout: shutdownTimeout,
	}
}

// Router exposes the engine, tests drive it through httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down http server")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
