package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/lazyline/internal/config/loader"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(WithConfigDir(t.TempDir()), WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("expected no source, got %q", cfg.Source)
	}
	if cfg.Cache.Capacity != Default().Cache.Capacity {
		t.Errorf("expected default capacity, got %d", cfg.Cache.Capacity)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `
[cache]
capacity = 4000

[view]
line_numbers = "relative"

[journal]
interval = "1m"
`)

	cfg, err := Load(WithConfigDir(dir), WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("expected source %q, got %q", path, cfg.Source)
	}
	if cfg.Cache.Capacity != 4000 {
		t.Errorf("expected capacity 4000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.EvictionBatch != 500 {
		t.Errorf("expected default eviction batch 500, got %d", cfg.Cache.EvictionBatch)
	}
	if cfg.View.LineNumbers != "relative" {
		t.Errorf("expected relative line numbers, got %q", cfg.View.LineNumbers)
	}
	if cfg.Journal.Interval.Std() != time.Minute {
		t.Errorf("expected 1m interval, got %v", cfg.Journal.Interval.Std())
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
index:
  chunk_size: 65536
watch:
  enabled: false
  delay: 1s
`)

	cfg, err := Load(WithConfigDir(dir), WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Index.ChunkSize != 65536 {
		t.Errorf("expected chunk size 65536, got %d", cfg.Index.ChunkSize)
	}
	if cfg.Watch.Enabled {
		t.Error("expected watch disabled")
	}
	if cfg.Watch.Delay.Std() != time.Second {
		t.Errorf("expected 1s delay, got %v", cfg.Watch.Delay.Std())
	}
}

func TestTOMLPreferredOverYAML(t *testing.T) {
	dir := t.TempDir()
	toml := writeConfig(t, dir, "config.toml", "[cache]\ncapacity = 10\n")
	writeConfig(t, dir, "config.yaml", "cache:\n  capacity: 20\n")

	cfg, err := Load(WithConfigDir(dir), WithEnvPrefix(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source != toml || cfg.Cache.Capacity != 10 {
		t.Errorf("expected config.toml to win, got %q capacity %d", cfg.Source, cfg.Cache.Capacity)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
[cache]
capacity = 4000
eviction_batch = 100
`)
	t.Setenv("LAZYLINE_CACHE_CAPACITY", "8000")
	t.Setenv("LAZYLINE_LOG_LEVEL", "debug")
	t.Setenv("LAZYLINE_JOURNAL_ENABLED", "false")

	cfg, err := Load(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.Capacity != 8000 {
		t.Errorf("expected env capacity 8000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.EvictionBatch != 100 {
		t.Errorf("expected file eviction batch 100, got %d", cfg.Cache.EvictionBatch)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
	if cfg.Journal.Enabled {
		t.Error("expected journal disabled")
	}
}

func TestExplicitFileMissing(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "nope.toml")), WithEnvPrefix(""))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestUnknownSettingRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.toml", "[cache]\ncapacty = 10\n")

	_, err := Load(WithFile(path), WithEnvPrefix(""))
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
}

func TestParseErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", "[cache\n")

	_, err := Load(WithFile(path), WithEnvPrefix(""))
	var pe *loader.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		path   string
	}{
		{"chunk size", func(c *Config) { c.Index.ChunkSize = 10 }, "index.chunk_size"},
		{"capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache.capacity"},
		{"tab width", func(c *Config) { c.View.TabWidth = 40 }, "view.tab_width"},
		{"line numbers", func(c *Config) { c.View.LineNumbers = "roman" }, "view.line_numbers"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"journal path", func(c *Config) { c.Journal.Path = "" }, "journal.path"},
		{"journal interval", func(c *Config) { c.Journal.Interval = Duration(time.Millisecond) }, "journal.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Path != tt.path {
				t.Errorf("expected path %q, got %q", tt.path, ve.Path)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Error("expected error to wrap ErrValidationFailed")
			}
		})
	}
}

func TestJournalPathOptionalWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Journal.Enabled = false
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestDefaultDirsHonorXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := DefaultConfigDir(); got != filepath.Join("/xdg/config", "lazyline") {
		t.Errorf("unexpected config dir %q", got)
	}
	if got := DefaultDataDir(); got != filepath.Join("/xdg/state", "lazyline") {
		t.Errorf("unexpected data dir %q", got)
	}
}
