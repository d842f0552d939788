package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/scenereel/internal/ports"
	"github.com/forPelevin/scenereel/internal/types"
)

const (
	defaultFPS    = 24
	defaultWidth  = 1280
	defaultHeight = 720
)

// Render controls the assembled output. Zero Width or Height sizes the
// canvas to the largest input.
type Render struct {
	FPS    int
	Width  int
	Height int
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	render  Render
}

func New(ffmpegPath, ffprobePath string, r Render) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if r.FPS <= 0 {
		r.FPS = defaultFPS
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, render: r}
}

type probeResult struct {
	Duration time.Duration
	Width    int
	Height   int
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (a *Adapter) probe(ctx context.Context, inMP4 string) (probeResult, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		"-of", "json",
		inMP4,
	)
	b, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return probeResult{}, fmt.Errorf("ffprobe: %w\n%s", err, string(ee.Stderr))
		}
		return probeResult{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(b)
}

func parseProbe(b []byte) (probeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(b, &raw); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var res probeResult
	s := strings.TrimSpace(raw.Format.Duration)
	if s != "" && s != "N/A" {
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return probeResult{}, fmt.Errorf("parse duration %q: %w", s, err)
		}
		res.Duration = time.Duration(sec * float64(time.Second))
	}
	for _, st := range raw.Streams {
		if st.CodecType == "video" && st.Width > 0 && st.Height > 0 {
			res.Width, res.Height = st.Width, st.Height
			break
		}
	}
	return res, nil
}

// Trim renders the first min(limit, natural length) of inMP4 into outMP4
// without audio. Anything ffmpeg cannot read is reported as a DecodeError.
func (a *Adapter) Trim(ctx context.Context, inMP4, outMP4 string, limit time.Duration) (types.TrimmedClip, error) {
	pr, err := a.probe(ctx, inMP4)
	if err != nil {
		if ctx.Err() != nil {
			return types.TrimmedClip{}, ctx.Err()
		}
		return types.TrimmedClip{}, &ports.DecodeError{Path: inMP4, Err: err}
	}
	if pr.Duration <= 0 {
		return types.TrimmedClip{}, &ports.DecodeError{Path: inMP4, Err: errors.New("unknown or zero duration")}
	}
	if pr.Width == 0 {
		return types.TrimmedClip{}, &ports.DecodeError{Path: inMP4, Err: errors.New("no video stream")}
	}

	d := boundDuration(limit, pr.Duration)
	cmd := exec.CommandContext(ctx, a.ffmpeg, trimArgs(inMP4, outMP4, d)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return types.TrimmedClip{}, ctx.Err()
		}
		return types.TrimmedClip{}, &ports.DecodeError{Path: inMP4, Err: fmt.Errorf("ffmpeg trim: %w\n%s", err, string(b))}
	}

	return types.TrimmedClip{
		Path:     outMP4,
		Duration: d,
		Width:    pr.Width,
		Height:   pr.Height,
	}, nil
}

func trimArgs(inMP4, outMP4 string, d time.Duration) []string {
	return []string{
		"-y",
		"-i", inMP4,
		"-t", fmtSeconds(d),
		"-map", "0:v:0",
		"-an",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		outMP4,
	}
}

func boundDuration(limit, natural time.Duration) time.Duration {
	if limit <= 0 || limit > natural {
		return natural
	}
	return limit
}

// Concat joins clips in order. Inputs are letterboxed onto a shared canvas so
// mixed resolutions and aspect ratios are accepted.
func (a *Adapter) Concat(ctx context.Context, clips []types.TrimmedClip, outMP4 string) error {
	if len(clips) == 0 {
		return ports.ErrNoClips
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, a.concatArgs(clips, outMP4)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		// ffmpeg may leave a partial file behind.
		_ = os.Remove(outMP4)
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) concatArgs(clips []types.TrimmedClip, outMP4 string) []string {
	w, h := a.canvas(clips)
	sw, sh := strconv.Itoa(w), strconv.Itoa(h)

	streams := make([]*ffmpeggo.Stream, 0, len(clips))
	for _, c := range clips {
		s := ffmpeggo.Input(c.Path).Video().
			Filter("scale", ffmpeggo.Args{sw, sh}, ffmpeggo.KwArgs{"force_original_aspect_ratio": "decrease"}).
			Filter("pad", ffmpeggo.Args{sw, sh, "(ow-iw)/2", "(oh-ih)/2"}).
			Filter("setsar", ffmpeggo.Args{"1"}).
			Filter("fps", ffmpeggo.Args{strconv.Itoa(a.render.FPS)})
		streams = append(streams, s)
	}

	return ffmpeggo.Concat(streams, ffmpeggo.KwArgs{"v": 1, "a": 0}).
		Output(outMP4, ffmpeggo.KwArgs{
			"c:v":      "libx264",
			"preset":   "veryfast",
			"crf":      "20",
			"pix_fmt":  "yuv420p",
			"r":        strconv.Itoa(a.render.FPS),
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		GetArgs()
}

// canvas picks the output frame size: the configured one, or the largest
// input dimensions rounded up to even numbers for yuv420p.
func (a *Adapter) canvas(clips []types.TrimmedClip) (int, int) {
	if a.render.Width > 0 && a.render.Height > 0 {
		return even(a.render.Width), even(a.render.Height)
	}
	w, h := 0, 0
	for _, c := range clips {
		if c.Width > w {
			w = c.Width
		}
		if c.Height > h {
			h = c.Height
		}
	}
	if w == 0 || h == 0 {
		return defaultWidth, defaultHeight
	}
	return even(w), even(h)
}

func even(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
