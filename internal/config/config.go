package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/render"
)

// FileNames are the configuration file names, in lookup order.
var FileNames = []string{"ango.json", "ango.yaml", "ango.yml"}

const (
	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultMaxUpdateCount is the default per-flush run limit per instance.
	DefaultMaxUpdateCount = 100
)

var (
	// ErrInvalid is returned by Validate and by loaders for files that do
	// not parse.
	ErrInvalid = errors.New("config: invalid configuration")

	// ErrNotFound is returned when no configuration file exists. It wraps
	// fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("config: no configuration file: %w", fs.ErrNotExist)
)

// Config represents the complete project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Render  RenderConfig  `json:"render" yaml:"render"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Inspect InspectConfig `json:"inspect" yaml:"inspect"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RenderConfig configures the renderer.
type RenderConfig struct {
	// Unitless replaces the style properties that take bare numbers. Empty
	// keeps the renderer's default list.
	Unitless []string `json:"unitless,omitempty" yaml:"unitless,omitempty"`

	// PoolSize bounds the recycling pool per component type. Zero disables
	// recycling.
	PoolSize int `json:"poolSize" yaml:"poolSize"`

	// MaxUpdateCount is how often one instance may render in one flush.
	MaxUpdateCount int `json:"maxUpdateCount" yaml:"maxUpdateCount"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig configures Prometheus metric names.
type MetricsConfig struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// InspectConfig configures the HTTP inspector.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Render: RenderConfig{
			PoolSize:       render.DefaultPoolSize,
			MaxUpdateCount: DefaultMaxUpdateCount,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "ango",
		},
		Inspect: InspectConfig{
			Addr: DefaultInspectAddr,
		},
	}
}

// Load reads the first configuration file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// LoadFile reads configuration from path. The format follows the file
// extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config: no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "ango"
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
	}

	if c.Render.PoolSize < 0 {
		return invalid("render.poolSize must not be negative, got %d", c.Render.PoolSize)
	}
	if c.Render.MaxUpdateCount < 0 {
		return invalid("render.maxUpdateCount must not be negative, got %d", c.Render.MaxUpdateCount)
	}
	for i, name := range c.Render.Unitless {
		if strings.TrimSpace(name) == "" {
			return invalid("render.unitless[%d] is empty", i)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, _, err := net.SplitHostPort(c.Inspect.Addr); err != nil {
		return invalid("inspect.addr: %v", err)
	}
	return nil
}

// RenderOptions returns the renderer options the configuration describes.
func (c *Config) RenderOptions() []render.Option {
	opts := []render.Option{
		render.WithPoolSize(c.Render.PoolSize),
		render.WithMaxUpdateCount(c.Render.MaxUpdateCount),
	}
	if len(c.Render.Unitless) > 0 {
		opts = append(opts, render.WithUnitless(c.Render.Unitless...))
	}
	return opts
}

// MetricsOptions returns the options for instrument.NewMetrics.
func (c *Config) MetricsOptions() []instrument.MetricsOption {
	return []instrument.MetricsOption{
		instrument.WithNamespace(c.Metrics.Namespace),
		instrument.WithSubsystem(c.Metrics.Subsystem),
	}
}

// Handler builds a slog handler writing to w.
func (c LogConfig) Handler(w io.Writer) slog.Handler {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up from startDir to the first directory holding a
// configuration file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
		}
		dir = parent
	}
}
