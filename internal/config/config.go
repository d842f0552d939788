// Package config assembles the run configuration from defaults, an optional
// YAML file and the environment. It is built once at startup and handed to
// the pipeline explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/scenereel/internal/ports/adapters/pexels"
)

const (
	DefaultWPM               = 150
	MinWPM                   = 50
	MaxWPM                   = 300
	DefaultFPS               = 24
	DefaultOutDir            = "out"
	DefaultPexelsBaseURL     = "https://api.pexels.com"
	DefaultRequestTimeout    = 60 * time.Second
	DefaultRunTimeout        = 15 * time.Minute
	DefaultRequestsPerSecond = 1.0
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"

	EnvPexelsAPIKey       = "PEXELS_API_KEY"
	EnvPexelsBaseURL      = "PEXELS_BASE_URL"
	EnvPexelsAllowedHosts = "PEXELS_ALLOWED_HOSTS"
	EnvWPM                = "SCENEREEL_WPM"
	EnvFPS                = "SCENEREEL_FPS"
	EnvWidth              = "SCENEREEL_WIDTH"
	EnvHeight             = "SCENEREEL_HEIGHT"
	EnvOutDir             = "SCENEREEL_OUT_DIR"
	EnvWorkDir            = "SCENEREEL_WORK_DIR"
	EnvFFmpeg             = "SCENEREEL_FFMPEG"
	EnvFFprobe            = "SCENEREEL_FFPROBE"
	EnvRequestTimeout     = "SCENEREEL_REQUEST_TIMEOUT"
	EnvRunTimeout         = "SCENEREEL_RUN_TIMEOUT"
	EnvRequestsPerSecond  = "SCENEREEL_REQUESTS_PER_SECOND"
	EnvLogLevel           = "SCENEREEL_LOG_LEVEL"
	EnvLogFormat          = "SCENEREEL_LOG_FORMAT"
)

type Config struct {
	PexelsAPIKey       string   `yaml:"-"`
	PexelsBaseURL      string   `yaml:"pexels_base_url"`
	PexelsAllowedHosts []string `yaml:"pexels_allowed_hosts"`

	WPM    int `yaml:"wpm"`
	FPS    int `yaml:"fps"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	OutDir  string `yaml:"out_dir"`
	WorkDir string `yaml:"work_dir"`

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ConfigurationError is a fatal, pre-run configuration problem.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Field + ": " + e.Reason
}

func Default() Config {
	return Config{
		PexelsBaseURL:     DefaultPexelsBaseURL,
		WPM:               DefaultWPM,
		FPS:               DefaultFPS,
		OutDir:            DefaultOutDir,
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
		RequestTimeout:    DefaultRequestTimeout,
		RunTimeout:        DefaultRunTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}
}

// Load reads defaults, then path (if not empty), then the process environment.
func Load(path string) (Config, error) {
	return LoadWith(path, os.Getenv)
}

func LoadWith(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str(EnvPexelsAPIKey, &c.PexelsAPIKey)
	str(EnvPexelsBaseURL, &c.PexelsBaseURL)
	str(EnvOutDir, &c.OutDir)
	str(EnvWorkDir, &c.WorkDir)
	str(EnvFFmpeg, &c.FFmpegPath)
	str(EnvFFprobe, &c.FFprobePath)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)

	if v := strings.TrimSpace(getenv(EnvPexelsAllowedHosts)); v != "" {
		c.PexelsAllowedHosts = strings.Split(v, ",")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWPM, &c.WPM},
		{EnvFPS, &c.FPS},
		{EnvWidth, &c.Width},
		{EnvHeight, &c.Height},
	}
	for _, it := range ints {
		v := strings.TrimSpace(getenv(it.key))
		if v == "" {
			continue
		}
		n, err := ParseInt(v)
		if err != nil {
			return &ConfigurationError{Field: it.key, Reason: err.Error()}
		}
		*it.dst = n
	}

	durs := []struct {
		key string
		dst *time.Duration
	}{
		{EnvRequestTimeout, &c.RequestTimeout},
		{EnvRunTimeout, &c.RunTimeout},
	}
	for _, it := range durs {
		v := strings.TrimSpace(getenv(it.key))
		if v == "" {
			continue
		}
		d, err := cast.ToDurationE(v)
		if err != nil {
			return &ConfigurationError{Field: it.key, Reason: err.Error()}
		}
		*it.dst = d
	}

	if v := strings.TrimSpace(getenv(EnvRequestsPerSecond)); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return &ConfigurationError{Field: EnvRequestsPerSecond, Reason: err.Error()}
		}
		c.RequestsPerSecond = f
	}
	return nil
}

// decimalInt matches base-10 integers, optionally written with a zero
// fraction. Leading zeros stay decimal: "0150" is 150, not octal.
var decimalInt = regexp.MustCompile(`^[+-]?[0-9]+(\.0*)?$`)

// ParseInt accepts user-entered integers such as " 150 ", "0150" or "150.0".
func ParseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if !decimalInt.MatchString(v) {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	digits, _, _ := strings.Cut(v, ".")
	sign := ""
	if digits[0] == '+' || digits[0] == '-' {
		sign, digits = digits[:1], digits[1:]
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	n, err := cast.ToIntE(sign + digits)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return n, nil
}

// ValidateWPM checks a words-per-minute rate against the supported range.
func ValidateWPM(wpm int) error {
	if wpm < MinWPM || wpm > MaxWPM {
		return &ConfigurationError{Field: "wpm", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinWPM, MaxWPM, wpm)}
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.PexelsAPIKey) == "" {
		return &ConfigurationError{Field: EnvPexelsAPIKey, Reason: "is required (set it in the environment or .env)"}
	}
	if err := ValidateWPM(c.WPM); err != nil {
		return err
	}
	if c.FPS <= 0 || c.FPS > 120 {
		return &ConfigurationError{Field: "fps", Reason: "must be between 1 and 120"}
	}
	if c.Width < 0 || c.Height < 0 || (c.Width == 0) != (c.Height == 0) {
		return &ConfigurationError{Field: "width/height", Reason: "set both to positive values, or both to 0 for automatic sizing"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigurationError{Field: "request_timeout", Reason: "must be > 0"}
	}
	if c.RunTimeout <= 0 {
		return &ConfigurationError{Field: "run_timeout", Reason: "must be > 0"}
	}
	if c.RequestsPerSecond < 0 {
		return &ConfigurationError{Field: "requests_per_second", Reason: "must be >= 0"}
	}
	if err := pexels.ValidateBaseURL(c.PexelsBaseURL, c.PexelsAllowedHosts); err != nil {
		return &ConfigurationError{Field: EnvPexelsBaseURL, Reason: err.Error()}
	}
	return nil
}

// IsConfigurationError reports whether err is a pre-run configuration failure.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
