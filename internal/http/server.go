package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

type Server struct {
	Engine *gin.Engine

	srv             *http.Server
	log             *logger.Logger
	shutdownTimeout time.Duration
}

// NewServer builds the router and an http.Server around it. Write timeouts
// are left unset so long streamed answers are not cut off.
func NewServer(cfg config.HTTPConfig, rc RouterConfig) *Server {
	rc.AllowedOrigins = cfg.AllowedOrigins
	rc.MaxRequestBytes = cfg.MaxRequestBytes
	engine := NewRouter(rc)
	log := rc.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		Engine: engine,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
			IdleTimeout:       cfg.IdleTimeout.Duration,
		},
		log:             log.With("service", "HTTPServer"),
		shutdownTimeout: cfg.ShutdownTimeout.Duration,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("http server shutting down", "timeout", timeout.String())
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
