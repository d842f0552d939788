package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/scenereel/internal/logging"
	"github.com/forPelevin/scenereel/internal/pipeline"
	"github.com/forPelevin/scenereel/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve a web form that generates videos",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         serve,
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")

	logger := logging.WithComponent(logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), "server")

	srv := server.New(server.Config{
		Addr:       addr,
		DefaultWPM: cfg.WPM,
		Logger:     logger,
		StartTime:  time.Now(),
		Run: func(ctx context.Context, req pipeline.Request) (pipeline.Report, error) {
			return pipeline.Run(ctx, cfg, logger, req)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

