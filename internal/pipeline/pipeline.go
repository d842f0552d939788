package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/forPelevin/scenereel/internal/config"
	"github.com/forPelevin/scenereel/internal/logging"
	"github.com/forPelevin/scenereel/internal/ports"
	"github.com/forPelevin/scenereel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/scenereel/internal/ports/adapters/pexels"
	"github.com/forPelevin/scenereel/internal/types"
	"github.com/forPelevin/scenereel/internal/usecase"
	"github.com/forPelevin/scenereel/internal/workspace"
)

const (
	videoFile    = "video.mp4"
	manifestFile = "manifest.json"
)

type Request struct {
	Script string
	// WPM overrides the configured rate when > 0.
	WPM int
	// Name seeds the run directory name, usually the script file name.
	Name string
	// OutDir overrides the configured output root when set.
	OutDir   string
	Progress func(usecase.Event)
}

type Report struct {
	RunID        string
	RunDir       string
	Video        string
	ManifestPath string
	Result       usecase.Result
}

// Run validates cfg, wires the Pexels and ffmpeg adapters and executes one
// pipeline run. Temporary downloads are always removed before Run returns.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, req Request) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	logger.Debug("pexels client",
		"base_url", cfg.PexelsBaseURL,
		"api_key", logging.SanitizeToken(cfg.PexelsAPIKey),
		"rps", cfg.RequestsPerSecond,
	)

	deps := usecase.Deps{
		Media: pexels.New(cfg.PexelsAPIKey, pexels.Options{
			BaseURL:           cfg.PexelsBaseURL,
			RequestTimeout:    cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Logger:            logging.WithComponent(logger, "pexels"),
		}),
		Video: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, ffmpeg.Render{
			FPS:    cfg.FPS,
			Width:  cfg.Width,
			Height: cfg.Height,
		}),
	}
	return run(ctx, cfg, logger, req, deps)
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, req Request, deps usecase.Deps) (Report, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	wpm := cfg.WPM
	if req.WPM > 0 {
		wpm = req.WPM
	}
	if err := config.ValidateWPM(wpm); err != nil {
		return Report{}, err
	}

	runID := uuid.NewString()
	logger = logging.WithRunID(logger, runID)
	deps.Logger = logging.WithComponent(logger, "usecase")

	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	ws, err := workspace.New(cfg.WorkDir, "scenereel-")
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Error("workspace cleanup failed", "error", err)
		}
	}()
	logger.Debug("workspace ready", "dir", ws.Dir())

	outDir := req.OutDir
	if outDir == "" {
		outDir = cfg.OutDir
	}
	if outDir == "" {
		outDir = config.DefaultOutDir
	}
	runDir := buildRunOutDir(outDir, req.Name, time.Now().UTC())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Report{}, err
	}
	logger.Info("output run dir", "dir", runDir)

	rep := Report{RunID: runID, RunDir: runDir}
	res, runErr := usecase.New(deps).Run(ctx, usecase.Input{
		Script:     req.Script,
		WPM:        wpm,
		Scratch:    ws,
		OutputPath: filepath.Join(runDir, videoFile),
		Progress:   req.Progress,
	})
	rep.Result = res
	rep.Video = res.Output

	if len(res.Outcomes) == 0 {
		// Nothing was attempted; leave no empty run dir behind.
		_ = os.Remove(runDir)
		rep.RunDir = ""
		return rep, runErr
	}

	m := buildManifest(runID, wpm, res)
	manifestPath := filepath.Join(runDir, manifestFile)
	if err := writeManifest(manifestPath, m); err != nil {
		return rep, errors.Join(runErr, err)
	}
	rep.ManifestPath = manifestPath
	logger.Info("manifest written", "scenes", len(m.Scenes), "clips", len(res.Clips), "path", manifestPath)
	return rep, runErr
}

func buildManifest(runID string, wpm int, res usecase.Result) types.Manifest {
	m := types.Manifest{RunID: runID, WPM: wpm}
	if res.Output != "" {
		m.Output = videoFile
	}
	for _, o := range res.Outcomes {
		ms := types.ManifestScene{
			Ordinal:     o.Scene.Ordinal,
			Query:       o.Query,
			EstimateSec: o.Estimate.Seconds(),
			Text:        o.Scene.Text,
		}
		if o.Skipped() {
			ms.Status = "skipped"
			ms.Reason = skipReason(o.Skip)
		} else {
			ms.Status = "ok"
			ms.ClipSec = o.Clip.Duration.Seconds()
		}
		m.Scenes = append(m.Scenes, ms)
	}
	return m
}

func skipReason(err error) string {
	var (
		se *ports.SearchError
		te *ports.TransportError
		de *ports.DecodeError
	)
	switch {
	case errors.Is(err, ports.ErrNoResults):
		return "no results"
	case errors.As(err, &se):
		return "search failed: " + firstLine(err.Error())
	case errors.As(err, &te):
		return "download failed: " + firstLine(err.Error())
	case errors.As(err, &de):
		return "decode failed: " + firstLine(err.Error())
	case err != nil:
		return firstLine(err.Error())
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func writeManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func buildRunOutDir(outRoot, name string, now time.Time) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	name = normalizePathSegment(name)
	if name == "" {
		name = "script"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", name, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.MediaProvider = (*pexels.Adapter)(nil)
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
