package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if len(cfg.Subjects) != 0 {
		t.Errorf("Subjects = %v, want none", cfg.Subjects)
	}
	if cfg.TargetCount != want.TargetCount || cfg.Concurrency != want.Concurrency {
		t.Errorf("TargetCount, Concurrency = %d, %d, want %d, %d",
			cfg.TargetCount, cfg.Concurrency, want.TargetCount, want.Concurrency)
	}
	if cfg.Source != want.Source {
		t.Errorf("Source = %+v, want %+v", cfg.Source, want.Source)
	}
	if cfg.Database != want.Database || cfg.Archive != want.Archive || cfg.Metrics != want.Metrics {
		t.Errorf("Load() = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
subjects: [alice, bob]
target_count: 20
start_date: "2024-01-01"
end_date: "2024-01-31"
subject_delay: 2s
source:
  timeout: 10s
  cache_size: 0
database:
  enabled: true
  driver: postgres
  dsn: postgres://localhost/tally
`)
	t.Setenv("TALLY_TARGET_COUNT", "35")
	t.Setenv("TALLY_SOURCE__USER_AGENT", "tally-test/0.1")
	t.Setenv("TALLY_ARCHIVE__CODEC", "gzip")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.Subjects, []string{"alice", "bob"}) {
		t.Errorf("Subjects = %v, want [alice bob]", cfg.Subjects)
	}
	if cfg.TargetCount != 35 {
		t.Errorf("TargetCount = %d, want env override 35", cfg.TargetCount)
	}
	if cfg.SubjectDelay != 2*time.Second {
		t.Errorf("SubjectDelay = %v, want 2s", cfg.SubjectDelay)
	}
	if cfg.Source.Timeout != 10*time.Second {
		t.Errorf("Source.Timeout = %v, want 10s", cfg.Source.Timeout)
	}
	if cfg.Source.UserAgent != "tally-test/0.1" {
		t.Errorf("Source.UserAgent = %q, want env override", cfg.Source.UserAgent)
	}
	if cfg.Source.BaseURL != Default().Source.BaseURL {
		t.Errorf("Source.BaseURL = %q, want default", cfg.Source.BaseURL)
	}
	if !cfg.Database.Enabled || cfg.Database.Driver != "postgres" {
		t.Errorf("Database = %+v, want enabled postgres", cfg.Database)
	}
	if cfg.Archive.Codec != "gzip" {
		t.Errorf("Archive.Codec = %q, want gzip", cfg.Archive.Codec)
	}

	r, err := cfg.DateRange()
	if err != nil {
		t.Fatalf("DateRange() error = %v", err)
	}
	if r.End == nil || r.End.Hour() != 23 {
		t.Errorf("DateRange().End = %v, want end of day", r.End)
	}
}

func TestLoad_SubjectsFromEnv(t *testing.T) {
	t.Setenv("TALLY_SUBJECTS", "alice, bob ,,carol")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(cfg.Subjects, want) {
		t.Errorf("Subjects = %v, want %v", cfg.Subjects, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative target", func(c *Config) { c.TargetCount = -1 }, "TargetCount"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "Concurrency"},
		{"database without dsn", func(c *Config) { c.Database.Enabled = true }, "DSN"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "Driver"},
		{"s3 without bucket", func(c *Config) { c.Archive.Backend = "s3" }, "Bucket"},
		{"bad codec", func(c *Config) { c.Archive.Codec = "lz4" }, "Codec"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "nine thousand" }, "Addr"},
		{"bad date", func(c *Config) { c.StartDate = "01/02/2024" }, "invalid date"},
		{"reversed range", func(c *Config) { c.StartDate, c.EndDate = "2024-03-01", "2024-02-01" }, "start date after end date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
