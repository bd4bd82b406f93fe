package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/lazyline/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "LAZYLINE_"

// Duration is a time.Duration read from strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete lazyline configuration.
type Config struct {
	Index   IndexConfig   `toml:"index"`
	Cache   CacheConfig   `toml:"cache"`
	View    ViewConfig    `toml:"view"`
	Log     LogConfig     `toml:"log"`
	Journal JournalConfig `toml:"journal"`
	Watch   WatchConfig   `toml:"watch"`
	Script  ScriptConfig  `toml:"script"`

	// Source is the config file that was read, or "" if none.
	Source string `toml:"-"`
}

// IndexConfig configures line indexing.
type IndexConfig struct {
	// ChunkSize is the number of bytes scanned per indexing step.
	ChunkSize int64 `toml:"chunk_size"`
}

// CacheConfig configures the decoded-line cache.
type CacheConfig struct {
	Capacity      int `toml:"capacity"`
	EvictionBatch int `toml:"eviction_batch"`
}

// ViewConfig configures the terminal view.
type ViewConfig struct {
	TabWidth       int    `toml:"tab_width"`
	LineNumbers    string `toml:"line_numbers"`
	MaxLineDisplay int    `toml:"max_line_display"`
	// MarginLines and MarginColumns keep the cursor away from the edges.
	MarginLines   int `toml:"margin_lines"`
	MarginColumns int `toml:"margin_columns"`
	ScrollLines   int `toml:"scroll_lines"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// JournalConfig configures the crash-recovery journal.
type JournalConfig struct {
	Enabled  bool     `toml:"enabled"`
	Path     string   `toml:"path"`
	Interval Duration `toml:"interval"`
}

// WatchConfig configures external-change detection.
type WatchConfig struct {
	Enabled bool     `toml:"enabled"`
	Delay   Duration `toml:"delay"`
}

// ScriptConfig configures Lua scripts.
type ScriptConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{ChunkSize: 1_000_000},
		Cache: CacheConfig{Capacity: 2000, EvictionBatch: 500},
		View: ViewConfig{
			TabWidth:       4,
			LineNumbers:    "absolute",
			MaxLineDisplay: 10_000,
			MarginLines:    3,
			MarginColumns:  8,
			ScrollLines:    3,
		},
		Log: LogConfig{Level: "info"},
		Journal: JournalConfig{
			Enabled:  true,
			Path:     filepath.Join(DefaultDataDir(), "journal.db"),
			Interval: Duration(30 * time.Second),
		},
		Watch:  WatchConfig{Enabled: true, Delay: Duration(200 * time.Millisecond)},
		Script: ScriptConfig{Timeout: Duration(5 * time.Minute)},
	}
}

var lineNumberModes = map[string]bool{
	"off": true, "absolute": true, "relative": true, "hybrid": true,
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	checks := []struct {
		path string
		ok   bool
		val  any
		msg  string
	}{
		{"index.chunk_size", c.Index.ChunkSize >= 4096, c.Index.ChunkSize, "must be at least 4096"},
		{"cache.capacity", c.Cache.Capacity >= 1, c.Cache.Capacity, "must be positive"},
		{"cache.eviction_batch", c.Cache.EvictionBatch >= 1, c.Cache.EvictionBatch, "must be positive"},
		{"view.tab_width", c.View.TabWidth >= 1 && c.View.TabWidth <= 16, c.View.TabWidth, "must be between 1 and 16"},
		{"view.line_numbers", lineNumberModes[c.View.LineNumbers], c.View.LineNumbers, "must be off, absolute, relative or hybrid"},
		{"view.max_line_display", c.View.MaxLineDisplay >= 80, c.View.MaxLineDisplay, "must be at least 80"},
		{"view.margin_lines", c.View.MarginLines >= 0, c.View.MarginLines, "must not be negative"},
		{"view.margin_columns", c.View.MarginColumns >= 0, c.View.MarginColumns, "must not be negative"},
		{"view.scroll_lines", c.View.ScrollLines >= 1, c.View.ScrollLines, "must be positive"},
		{"log.level", logLevels[c.Log.Level], c.Log.Level, "unknown level"},
		{"journal.path", !c.Journal.Enabled || c.Journal.Path != "", c.Journal.Path, "required when the journal is enabled"},
		{"journal.interval", c.Journal.Interval.Std() >= time.Second, c.Journal.Interval.Std(), "must be at least 1s"},
		{"watch.delay", c.Watch.Delay.Std() > 0, c.Watch.Delay.Std(), "must be positive"},
		{"script.timeout", c.Script.Timeout.Std() >= 0, c.Script.Timeout.Std(), "must not be negative"},
	}
	for _, check := range checks {
		if !check.ok {
			return &ValidationError{Path: check.path, Value: check.val, Message: check.msg}
		}
	}
	return nil
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	file      string
	configDir string
	envPrefix string
	fs        loader.FileSystem
}

// WithFile reads the given config file instead of searching the config dir.
// A missing explicit file is an error.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithConfigDir sets the directory searched for config.toml or config.yaml.
func WithConfigDir(dir string) Option {
	return func(o *loadOptions) {
		o.configDir = dir
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithFS sets the file system config files are read from.
func WithFS(fs loader.FileSystem) Option {
	return func(o *loadOptions) {
		o.fs = fs
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{
		configDir: DefaultConfigDir(),
		envPrefix: EnvPrefix,
		fs:        loader.DefaultFS(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	merged := map[string]any{}

	path, err := o.findFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		fileMap, err := loader.ForPath(o.fs, path).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileMap)
		cfg.Source = path
	}

	if o.envPrefix != "" {
		envMap, err := loader.NewEnvLoader(o.envPrefix).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, envMap)
	}

	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findFile returns the config file to read, or "" when there is none.
func (o *loadOptions) findFile() (string, error) {
	if o.file != "" {
		if _, err := o.fs.Stat(o.file); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%s: %w", o.file, ErrFileNotFound)
			}
			return "", err
		}
		return o.file, nil
	}
	if o.configDir == "" {
		return "", nil
	}
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(o.configDir, name)
		if _, err := o.fs.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// decode applies the merged layers over cfg by round-tripping them through
// TOML, which gives one set of type conversions for every source.
func decode(merged map[string]any, cfg *Config) error {
	if len(merged) == 0 {
		return nil
	}
	data, err := toml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: unknown setting\n%s", ErrValidationFailed, strict.String())
		}
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

// DefaultConfigDir returns the user configuration directory.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lazyline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lazyline")
}

// DefaultDataDir returns the directory for lazyline's state files.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "lazyline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "lazyline")
}
