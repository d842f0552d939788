// Package workspace owns the scratch directory of a single pipeline run.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a temporary directory whose contents are removed by Close.
// Close is safe to call more than once and from deferred cleanup paths.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// New creates a fresh directory under base (the OS temp dir when empty).
func New(base, prefix string) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace base: %w", err)
		}
	}
	if prefix == "" {
		prefix = "scenereel-"
	}
	dir, err := os.MkdirTemp(base, prefix)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// SceneFile names a per-scene file, e.g. SceneFile(3, "") = scene_003.mp4 and
// SceneFile(3, "trim") = scene_003_trim.mp4.
func (w *Workspace) SceneFile(ordinal int, suffix string) string {
	name := fmt.Sprintf("scene_%03d", ordinal)
	if suffix != "" {
		name += "_" + suffix
	}
	return w.Path(name + ".mp4")
}

func (w *Workspace) Close() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.err = fmt.Errorf("remove workspace %s: %w", w.dir, err)
		}
	})
	return w.err
}
