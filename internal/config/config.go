// Package config loads tally's configuration from defaults, an optional
// YAML file and TALLY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/discochess/tally/internal/window"
)

// EnvPrefix prefixes every environment variable tally reads. Nested keys
// use a double underscore: TALLY_SOURCE__USER_AGENT sets source.user_agent.
const EnvPrefix = "TALLY_"

// Config is the complete tally configuration.
type Config struct {
	Subjects     []string      `koanf:"subjects" validate:"dive,required"`
	TargetCount  int           `koanf:"target_count" validate:"gte=0"`
	StartDate    string        `koanf:"start_date"`
	EndDate      string        `koanf:"end_date"`
	Dedupe       bool          `koanf:"dedupe"`
	SubjectDelay time.Duration `koanf:"subject_delay" validate:"gte=0"`
	Concurrency  int           `koanf:"concurrency" validate:"gte=1,lte=16"`

	Source   SourceConfig   `koanf:"source"`
	Database DatabaseConfig `koanf:"database"`
	Archive  ArchiveConfig  `koanf:"archive"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// SourceConfig configures where games are fetched from.
type SourceConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	UserAgent         string        `koanf:"user_agent" validate:"required"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	CacheSize         int           `koanf:"cache_size" validate:"gte=0"`
	// FromArchive reads previously harvested months instead of the API.
	FromArchive bool `koanf:"from_archive"`
}

// DatabaseConfig configures the optional persistence sink.
type DatabaseConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  string `koanf:"driver" validate:"oneof=postgres sqlite3"`
	DSN     string `koanf:"dsn" validate:"required_if=Enabled true"`
}

// ArchiveConfig configures the harvested month archive.
type ArchiveConfig struct {
	Backend  string `koanf:"backend" validate:"oneof=disk s3 gcs"`
	Dir      string `koanf:"dir" validate:"required_if=Backend disk"`
	Bucket   string `koanf:"bucket" validate:"required_if=Backend s3,required_if=Backend gcs"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	Codec    string `koanf:"codec" validate:"oneof=zstd gzip none"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. ":9090".
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		TargetCount: 50,
		Concurrency: 1,
		Source: SourceConfig{
			BaseURL:           "https://api.chess.com/pub",
			UserAgent:         "tally/1.0 (+https://github.com/discochess/tally)",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 3,
			Burst:             1,
			MaxRetries:        3,
			CacheSize:         64,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
		},
		Archive: ArchiveConfig{
			Backend: "disk",
			Dir:     "archive",
			Codec:   "zstd",
		},
	}
}

// Load layers defaults, the YAML file at path (skipped when empty) and the
// environment, then validates the result. A .env file in the working
// directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := splitSubjects(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps TALLY_SOURCE__USER_AGENT to source.user_agent.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// splitSubjects turns a comma-separated TALLY_SUBJECTS value into a list.
func splitSubjects(k *koanf.Koanf) error {
	s, ok := k.Get("subjects").(string)
	if !ok {
		return nil
	}
	var subjects []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			subjects = append(subjects, p)
		}
	}
	if err := k.Set("subjects", subjects); err != nil {
		return fmt.Errorf("setting subjects: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the date range parses and is ordered.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.DateRange(); err != nil {
		return err
	}
	return nil
}

// DateRange parses StartDate and EndDate.
func (c *Config) DateRange() (window.DateRange, error) {
	return window.NewRange(c.StartDate, c.EndDate)
}
