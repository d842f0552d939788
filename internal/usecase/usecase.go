package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/forPelevin/scenereel/internal/domain/script"
	"github.com/forPelevin/scenereel/internal/logging"
	"github.com/forPelevin/scenereel/internal/ports"
	"github.com/forPelevin/scenereel/internal/types"
)

var (
	// ErrNoScenes means the script had no non-blank text. Nothing was fetched.
	ErrNoScenes = errors.New("no scenes found in script")
	// ErrNoValidScenes means every scene was skipped, so no video was produced.
	ErrNoValidScenes = errors.New("no scene produced a usable clip")
)

// RunTimeoutError is returned when the run deadline expires mid-run.
type RunTimeoutError struct {
	Processed int
	Total     int
	Err       error
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run timed out after %d of %d scenes: %v", e.Processed, e.Total, e.Err)
}

func (e *RunTimeoutError) Unwrap() error { return e.Err }

type Deps struct {
	Media  ports.MediaProvider
	Video  ports.VideoTool
	Logger *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return Usecase{d: d}
}

// Scratch hands out per-scene file paths inside the run's temporary
// directory. Paths for different ordinals must not collide.
type Scratch interface {
	SceneFile(ordinal int, suffix string) string
}

type Input struct {
	Script     string
	WPM        int
	Scratch    Scratch
	OutputPath string
	Progress   func(Event)
}

type EventKind string

const (
	EventScenes     EventKind = "scenes"
	EventScene      EventKind = "scene"
	EventSkipped    EventKind = "skipped"
	EventClipReady  EventKind = "clip_ready"
	EventAssembling EventKind = "assembling"
)

type Event struct {
	Kind     EventKind
	Total    int
	Scene    types.Scene
	Query    string
	Estimate time.Duration
	Err      error
}

type Result struct {
	Outcomes []types.SceneOutcome
	Clips    []types.TrimmedClip
	Output   string
}

// Run processes scenes strictly in script order. A scene whose search,
// download or decode fails is skipped; only an empty script, a run where
// every scene was skipped, or the context ending stop the run.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	emit := in.Progress
	if emit == nil {
		emit = func(Event) {}
	}
	log := u.d.Logger

	scenes := script.Split(in.Script)
	emit(Event{Kind: EventScenes, Total: len(scenes)})
	log.Info("scenes detected", "count", len(scenes))
	if len(scenes) == 0 {
		return Result{}, ErrNoScenes
	}

	res := Result{Outcomes: make([]types.SceneOutcome, 0, len(scenes))}
	for _, sc := range scenes {
		if ctx.Err() != nil {
			return res, aborted(ctx, len(res.Outcomes), len(scenes))
		}

		o := u.processScene(ctx, in, sc, emit)
		if o.Skipped() && ctx.Err() != nil {
			return res, aborted(ctx, len(res.Outcomes), len(scenes))
		}
		res.Outcomes = append(res.Outcomes, o)

		if o.Skipped() {
			log.Warn("scene skipped", "scene", sc.Ordinal, "query", o.Query, "reason", o.Skip)
			emit(Event{Kind: EventSkipped, Scene: sc, Query: o.Query, Estimate: o.Estimate, Err: o.Skip})
			continue
		}
		res.Clips = append(res.Clips, *o.Clip)
		emit(Event{Kind: EventClipReady, Scene: sc, Query: o.Query, Estimate: o.Clip.Duration})
	}

	if len(res.Clips) == 0 {
		return res, ErrNoValidScenes
	}

	emit(Event{Kind: EventAssembling, Total: len(res.Clips)})
	log.Info("assembling video", "clips", len(res.Clips), "out", in.OutputPath)
	if err := u.d.Video.Concat(ctx, res.Clips, in.OutputPath); err != nil {
		if ctx.Err() != nil {
			return res, aborted(ctx, len(res.Outcomes), len(scenes))
		}
		return res, fmt.Errorf("assemble: %w", err)
	}
	res.Output = in.OutputPath
	return res, nil
}

func (u Usecase) processScene(ctx context.Context, in Input, sc types.Scene, emit func(Event)) types.SceneOutcome {
	o := types.SceneOutcome{
		Scene:    sc,
		Query:    script.ExtractQuery(sc.Text),
		Estimate: script.EstimateDuration(sc.Text, in.WPM),
	}
	emit(Event{Kind: EventScene, Scene: sc, Query: o.Query, Estimate: o.Estimate})
	u.d.Logger.Info("scene", "scene", sc.Ordinal, "query", o.Query, "estimate", o.Estimate.Round(100*time.Millisecond))

	descs, err := u.d.Media.Search(ctx, o.Query)
	if err != nil {
		o.Skip = err
		return o
	}
	if len(descs) == 0 || descs[0].MediaLink() == "" {
		o.Skip = fmt.Errorf("search %q: %w", o.Query, ports.ErrNoResults)
		return o
	}

	local := in.Scratch.SceneFile(sc.Ordinal, "")
	if _, err := u.d.Media.Download(ctx, descs[0].MediaLink(), local); err != nil {
		o.Skip = err
		return o
	}

	clip, err := u.d.Video.Trim(ctx, local, in.Scratch.SceneFile(sc.Ordinal, "trim"), o.Estimate)
	// The source download is not needed past this point either way.
	_ = os.Remove(local)
	if err != nil {
		o.Skip = err
		return o
	}
	clip.Ordinal = sc.Ordinal
	o.Clip = &clip
	return o
}

func aborted(ctx context.Context, processed, total int) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &RunTimeoutError{Processed: processed, Total: total, Err: err}
	}
	return fmt.Errorf("run canceled after %d of %d scenes: %w", processed, total, err)
}
