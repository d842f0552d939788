package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/forPelevin/scenereel/internal/config"
	"github.com/forPelevin/scenereel/internal/logging"
	"github.com/forPelevin/scenereel/internal/pipeline"
	"github.com/forPelevin/scenereel/internal/usecase"
)

func run(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	script, name, err := readScript(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	rep, err := pipeline.Run(ctx, cfg, logger, pipeline.Request{
		Script:   script,
		Name:     name,
		Progress: progressPrinter(out),
	})
	switch {
	case errors.Is(err, usecase.ErrNoScenes):
		fmt.Fprintln(out, "No scenes found in the script: nothing to do.")
		return nil
	case errors.Is(err, usecase.ErrNoValidScenes):
		if rep.ManifestPath != "" {
			return fmt.Errorf("no video generated: every scene was skipped (see %s)", rep.ManifestPath)
		}
		return errors.New("no video generated: every scene was skipped")
	case err != nil:
		return err
	}

	size := ""
	if st, statErr := os.Stat(rep.Video); statErr == nil {
		size = " (" + humanize.Bytes(uint64(st.Size())) + ")"
	}
	fmt.Fprintf(out, "Video: %s%s\n", rep.Video, size)
	fmt.Fprintf(out, "Manifest: %s\n", rep.ManifestPath)
	return nil
}

// loadConfig layers flags that were explicitly set on top of file and env
// configuration, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}

	fl := cmd.Flags()
	if fl.Changed("wpm") {
		cfg.WPM, _ = fl.GetInt("wpm")
	}
	if fl.Changed("fps") {
		cfg.FPS, _ = fl.GetInt("fps")
	}
	if fl.Changed("width") {
		cfg.Width, _ = fl.GetInt("width")
	}
	if fl.Changed("height") {
		cfg.Height, _ = fl.GetInt("height")
	}
	if fl.Changed("out") {
		cfg.OutDir, _ = fl.GetString("out")
	}
	if fl.Changed("log-level") {
		cfg.LogLevel, _ = fl.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func readScript(stdin io.Reader, input string) (script, name string, err error) {
	if input == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read script from stdin: %w", err)
		}
		return string(b), "stdin", nil
	}
	b, err := os.ReadFile(input)
	if err != nil {
		return "", "", fmt.Errorf("read script: %w", err)
	}
	base := filepath.Base(input)
	return string(b), strings.TrimSuffix(base, filepath.Ext(base)), nil
}

func progressPrinter(w io.Writer) func(usecase.Event) {
	return func(ev usecase.Event) {
		switch ev.Kind {
		case usecase.EventScenes:
			fmt.Fprintf(w, "Scenes detected: %d\n", ev.Total)
		case usecase.EventScene:
			fmt.Fprintf(w, "Scene %d: '%s' - estimated duration: %.1fs\n", ev.Scene.Ordinal, ev.Query, ev.Estimate.Seconds())
		case usecase.EventSkipped:
			fmt.Fprintf(w, "Warning: skipping scene %d: %v\n", ev.Scene.Ordinal, ev.Err)
		case usecase.EventAssembling:
			fmt.Fprintf(w, "Assembling %d clips...\n", ev.Total)
		}
	}
}
