package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspace_CloseRemovesEverything(t *testing.T) {
	base := t.TempDir()
	ws, err := New(base, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, p := range []string{ws.SceneFile(1, ""), ws.SceneFile(1, "trim"), ws.SceneFile(2, "") + ".part"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatalf("expected workspace dir removed, stat err=%v", err)
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("read base: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty base dir, found %d entries", len(entries))
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWorkspace_SceneFileNames(t *testing.T) {
	ws, err := New(t.TempDir(), "run-")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer ws.Close()

	if got := filepath.Base(ws.SceneFile(7, "")); got != "scene_007.mp4" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := filepath.Base(ws.SceneFile(12, "trim")); got != "scene_012_trim.mp4" {
		t.Fatalf("unexpected name %q", got)
	}
	if ws.SceneFile(1, "") == ws.SceneFile(2, "") {
		t.Fatalf("expected distinct per-scene files")
	}
}
