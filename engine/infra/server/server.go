// Package server exposes the ingestion and retrieval engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 120 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Server wires the engine services behind a gin router and owns the HTTP
// listener lifecycle. Write timeout is generous because RAG synthesis sits
// on the request path.
type Server struct {
	cfg        *config.Config
	log        *charmlog.Logger
	httpServer *http.Server
}

// New builds a server from the engine dependencies.
func New(
	cfg *config.Config,
	log *charmlog.Logger,
	ingestor Ingestor,
	searcher Retriever,
	docs DocumentStore,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", core.ErrInvalidConfig)
	}
	if ingestor == nil || searcher == nil || docs == nil {
		return nil, fmt.Errorf("%w: server dependencies are required", core.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	h := &handlers{
		ingestor:       ingestor,
		searcher:       searcher,
		docs:           docs,
		maxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	engine := buildRouter(cfg, h, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		cfg: cfg,
		log: log,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  httpReadTimeout,
			WriteTimeout: httpWriteTimeout,
			IdleTimeout:  httpIdleTimeout,
		},
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is canceled, then drains in-flight requests within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.With("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
