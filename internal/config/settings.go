package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey    = "APOD_API_KEY"
	EnvBaseURL   = "APOD_BASE_URL"
	EnvOutputDir = "APOD_OUTPUT_DIR"
	EnvTimeout   = "APOD_TIMEOUT"
	EnvUserAgent = "APOD_USER_AGENT"
	EnvSchedule  = "APOD_SCHEDULE"
)

// Settings holds all configuration options.
type Settings struct {
	// API settings
	APIKey         string `json:"api_key" yaml:"api_key"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	UserAgent      string `json:"user_agent" yaml:"user_agent"`

	// Storage settings. An empty OutputDir means the working directory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Image settings
	PreferHD      bool `json:"prefer_hd" yaml:"prefer_hd"`
	ConvertToJPEG bool `json:"convert_to_jpeg" yaml:"convert_to_jpeg"`
	MaxImageSize  int  `json:"max_image_size" yaml:"max_image_size"` // 0 keeps the original size
	Caption       bool `json:"caption" yaml:"caption"`

	// Surprise mode
	MaxRandomAttempts int `json:"max_random_attempts" yaml:"max_random_attempts"`

	// Schedule is a cron expression for repeated downloads. Empty means a
	// single run.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// DefaultSettings returns settings with default values.
//
// The API key is left empty; the APOD client then uses NASA's DEMO_KEY.
func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:           "https://api.nasa.gov/planetary/apod",
		TimeoutSeconds:    30,
		UserAgent:         "apod-downloader",
		MaxRandomAttempts: 10000,
	}
}

// Timeout returns the request timeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads settings from a JSON or YAML file, chosen by extension
// (.yaml/.yml are YAML, anything else JSON). Values missing from the file keep
// their defaults. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the process
// environment without overriding variables that are already set. With no
// arguments it reads ".env" in the working directory. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// ApplyEnv overrides settings from APOD_* environment variables.
// Invalid numeric values are logged and ignored.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		s.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		s.OutputDir = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		s.UserAgent = v
	}
	if v := os.Getenv(EnvSchedule); v != "" {
		s.Schedule = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if secs, err := parseTimeout(v); err == nil {
			s.TimeoutSeconds = secs
		} else {
			slog.Warn("invalid timeout in environment, keeping current value",
				slog.String("key", EnvTimeout),
				slog.String("value", v),
				slog.Int("current", s.TimeoutSeconds))
		}
	}
}

// parseTimeout accepts whole seconds ("45") or a Go duration ("1m30s").
func parseTimeout(v string) (int, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", secs)
		}
		return secs, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < time.Second {
		return 0, fmt.Errorf("timeout must be at least 1s, got %s", d)
	}
	return int(d / time.Second), nil
}

// Validate checks if the settings are usable.
func (s *Settings) Validate() error {
	var errs []error

	if s.BaseURL == "" {
		errs = append(errs, errors.New("base_url cannot be empty"))
	} else if !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base_url must be an http(s) URL, got %q", s.BaseURL))
	}
	if s.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be positive, got %d", s.TimeoutSeconds))
	}
	if s.MaxImageSize < 0 {
		errs = append(errs, fmt.Errorf("max_image_size cannot be negative, got %d", s.MaxImageSize))
	}
	if s.MaxRandomAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_random_attempts must be positive, got %d", s.MaxRandomAttempts))
	}
	if s.Schedule != "" {
		if err := ValidateSchedule(s.Schedule); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateSchedule checks a cron expression: five standard fields or a
// descriptor such as "@daily" or "@every 6h".
//
// Example:
//
//	err := ValidateSchedule("0 9 * * *") // every day at 09:00
func ValidateSchedule(schedule string) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
