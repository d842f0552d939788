package types

import "time"

// Scene is one blank-line separated block of the input script.
type Scene struct {
	Ordinal int
	Text    string
}

type ClipDescriptor struct {
	ID       int
	URL      string
	Duration time.Duration
	Width    int
	Height   int
	Files    []VideoFile
}

type VideoFile struct {
	Link     string
	Quality  string
	FileType string
	Width    int
	Height   int
}

// MediaLink returns the first downloadable link, or "" when there is none.
func (d ClipDescriptor) MediaLink() string {
	if len(d.Files) == 0 {
		return ""
	}
	return d.Files[0].Link
}

type TrimmedClip struct {
	Ordinal  int
	Path     string
	Duration time.Duration
	Width    int
	Height   int
}

// SceneOutcome is the result of processing one scene: Clip is set on success,
// Skip holds the reason otherwise.
type SceneOutcome struct {
	Scene    Scene
	Query    string
	Estimate time.Duration
	Clip     *TrimmedClip
	Skip     error
}

func (o SceneOutcome) Skipped() bool { return o.Clip == nil }

type Manifest struct {
	RunID  string          `json:"run_id"`
	WPM    int             `json:"wpm"`
	Output string          `json:"output"`
	Scenes []ManifestScene `json:"scenes"`
}

type ManifestScene struct {
	Ordinal     int     `json:"ordinal"`
	Query       string  `json:"query"`
	EstimateSec float64 `json:"estimate_sec"`
	Status      string  `json:"status"`
	Reason      string  `json:"reason,omitempty"`
	ClipSec     float64 `json:"clip_sec,omitempty"`
	Text        string  `json:"text"`
}
