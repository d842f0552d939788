// Package server exposes the generator as a small web form: paste a script,
// pick a speaking rate, download the assembled video.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forPelevin/scenereel/internal/pipeline"
)

// RunFunc executes one pipeline run. The CLI binds it to pipeline.Run with
// the startup configuration.
type RunFunc func(ctx context.Context, req pipeline.Request) (pipeline.Report, error)

type Config struct {
	Addr       string
	DefaultWPM int
	Run        RunFunc
	Logger     *slog.Logger
	StartTime  time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 15 * time.Second,
			// Generation is synchronous and can take minutes.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
