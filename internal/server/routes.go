package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forPelevin/scenereel/internal/config"
	"github.com/forPelevin/scenereel/internal/logging"
	"github.com/forPelevin/scenereel/internal/pipeline"
	"github.com/forPelevin/scenereel/internal/usecase"
)

const (
	maxScriptBytes   = 256 << 10
	downloadFilename = "scenereel.mp4"
)

func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.DefaultWPM == 0 {
		cfg.DefaultWPM = config.DefaultWPM
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/healthz", healthHandler(cfg))
	r.Get("/", formHandler(cfg))
	r.Post("/generate", generateHandler(cfg))
	return r
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"uptime_s": int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func formHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderForm(w, http.StatusOK, formData{WPM: cfg.DefaultWPM})
	}
}

func generateHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxScriptBytes)
		if err := r.ParseForm(); err != nil {
			renderForm(w, http.StatusBadRequest, formData{Error: "could not read form: " + err.Error()})
			return
		}
		script := r.PostForm.Get("script")
		d := formData{Script: script, WPM: cfg.DefaultWPM}

		if v := strings.TrimSpace(r.PostForm.Get("wpm")); v != "" {
			wpm, err := config.ParseInt(v)
			if err != nil {
				d.Error = "words per minute must be a whole number"
				renderForm(w, http.StatusBadRequest, d)
				return
			}
			d.WPM = wpm
		}
		if err := config.ValidateWPM(d.WPM); err != nil {
			d.Error = err.Error()
			var ce *config.ConfigurationError
			if errors.As(err, &ce) {
				d.Error = "words per minute " + ce.Reason
			}
			renderForm(w, http.StatusBadRequest, d)
			return
		}
		if strings.TrimSpace(script) == "" {
			d.Error = "the script is empty: nothing to generate"
			renderForm(w, http.StatusUnprocessableEntity, d)
			return
		}

		outDir, err := os.MkdirTemp("", "scenereel-out-")
		if err != nil {
			cfg.Logger.Error("create output dir", "error", err)
			d.Error = "internal error"
			renderForm(w, http.StatusInternalServerError, d)
			return
		}
		defer os.RemoveAll(outDir)

		rep, err := cfg.Run(r.Context(), pipeline.Request{
			Script: script,
			WPM:    d.WPM,
			Name:   "web",
			OutDir: outDir,
		})
		if err != nil {
			status, msg := describeRunError(err)
			if status >= 500 {
				cfg.Logger.Error("generate failed", "error", err)
			}
			d.Error = msg
			renderForm(w, status, d)
			return
		}

		f, err := os.Open(rep.Video)
		if err != nil {
			cfg.Logger.Error("open generated video", "error", err)
			d.Error = "internal error"
			renderForm(w, http.StatusInternalServerError, d)
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			cfg.Logger.Error("stat generated video", "error", err)
			d.Error = "internal error"
			renderForm(w, http.StatusInternalServerError, d)
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename+`"`)
		http.ServeContent(w, r, downloadFilename, st.ModTime(), f)
	}
}

func describeRunError(err error) (int, string) {
	var rte *usecase.RunTimeoutError
	switch {
	case errors.Is(err, usecase.ErrNoScenes):
		return http.StatusUnprocessableEntity, "the script has no scenes: nothing to generate"
	case errors.Is(err, usecase.ErrNoValidScenes):
		return http.StatusUnprocessableEntity, "could not generate a video: no scene found a usable clip"
	case errors.As(err, &rte):
		return http.StatusGatewayTimeout, "generation took too long and was stopped"
	case config.IsConfigurationError(err):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "video generation failed"
	}
}
