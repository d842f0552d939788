package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/scenereel/internal/config"
	"github.com/forPelevin/scenereel/internal/types"
	"github.com/forPelevin/scenereel/internal/usecase"
)

func TestReadScript_FileAndStdin(t *testing.T) {
	p := filepath.Join(t.TempDir(), "My Story.txt")
	if err := os.WriteFile(p, []byte("one\n\ntwo"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, name, err := readScript(nil, p)
	if err != nil {
		t.Fatalf("readScript: %v", err)
	}
	if s != "one\n\ntwo" || name != "My Story" {
		t.Fatalf("got (%q, %q)", s, name)
	}

	s, name, err = readScript(strings.NewReader("from stdin"), "-")
	if err != nil {
		t.Fatalf("readScript stdin: %v", err)
	}
	if s != "from stdin" || name != "stdin" {
		t.Fatalf("got (%q, %q)", s, name)
	}

	if _, _, err := readScript(nil, filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(usecase.Event{Kind: usecase.EventScenes, Total: 3})
	p(usecase.Event{Kind: usecase.EventScene, Scene: types.Scene{Ordinal: 1}, Query: "sunrise over the sea", Estimate: 2500 * time.Millisecond})
	p(usecase.Event{Kind: usecase.EventSkipped, Scene: types.Scene{Ordinal: 2}, Err: errors.New("no results")})

	want := "Scenes detected: 3\n" +
		"Scene 1: 'sunrise over the sea' - estimated duration: 2.5s\n" +
		"Warning: skipping scene 2: no results\n"
	if buf.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv(config.EnvPexelsAPIKey, "k")
	t.Setenv(config.EnvWPM, "120")
	t.Setenv(config.EnvOutDir, "from-env")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--wpm", "200"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.WPM != 200 {
		t.Fatalf("wpm=%d, want 200", cfg.WPM)
	}
	if cfg.OutDir != "from-env" {
		t.Fatalf("out=%q, want env value", cfg.OutDir)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv(config.EnvPexelsAPIKey, "")
	cmd := newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(cmd)
	if !config.IsConfigurationError(err) || !strings.Contains(err.Error(), config.EnvPexelsAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}

	t.Setenv(config.EnvPexelsAPIKey, "k")
	cmd = newRootCmd()
	if err := cmd.ParseFlags([]string{"--wpm", "400"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd); !config.IsConfigurationError(err) {
		t.Fatalf("expected wpm error, got %v", err)
	}
}

func TestRun_EmptyScriptIsNothingToDo(t *testing.T) {
	t.Setenv(config.EnvPexelsAPIKey, "k")
	t.Setenv(config.EnvWorkDir, t.TempDir())
	out := t.TempDir()

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("\n\n   \n"))
	cmd.SetArgs([]string{"--out", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(stdout.String(), "nothing to do") {
		t.Fatalf("stdout=%q", stdout.String())
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("expected no output, found %d entries", len(entries))
	}
}
