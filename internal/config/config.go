// Package config loads synckdf settings from defaults, an optional .env
// file, an optional YAML file and SYNCKDF_* environment variables, in that
// order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mozilla-services/android-sync/internal/kdf"
)

const (
	EnvDir       = "SYNCKDF_DIR"
	EnvMaxMemory = "SYNCKDF_MAX_MEMORY"
	EnvLogLevel  = "SYNCKDF_LOG_LEVEL"
	EnvLogFormat = "SYNCKDF_LOG_FORMAT"
)

var (
	ErrInvalidLogLevel  = errors.New("log_level must be one of debug, info, warn, error")
	ErrInvalidLogFormat = errors.New("log_format must be text or json")
	ErrNoMemory         = errors.New("max_memory must be positive")
	ErrNoDir            = errors.New("dir must not be empty")
)

// ByteSize is a byte count written with optional units ("256 MiB", "1GB").
type ByteSize uint64

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	n, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: parsing size %q: %w", value.Line, value.Value, err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

// Config holds the effective settings.
type Config struct {
	Dir       string   `yaml:"dir"`
	MaxMemory ByteSize `yaml:"max_memory"`
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
}

// DefaultDir returns ~/.synckdf.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".synckdf")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dir:       DefaultDir(),
		MaxMemory: kdf.DefaultMaxMemory,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// DBPath is the metadata database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, "synckdf.db")
}

// FilePath is the default YAML config location inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, "config.yaml")
}

// Load builds the effective configuration. An empty path means
// <dir>/config.yaml, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if d := os.Getenv(EnvDir); d != "" {
		cfg.Dir = d
	}

	explicit := path != ""
	if !explicit {
		path = FilePath(cfg.Dir)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if d := os.Getenv(EnvDir); d != "" {
		c.Dir = d
	}
	if m := os.Getenv(EnvMaxMemory); m != "" {
		n, err := humanize.ParseBytes(m)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMaxMemory, err)
		}
		c.MaxMemory = ByteSize(n)
	}
	if l := os.Getenv(EnvLogLevel); l != "" {
		c.LogLevel = l
	}
	if f := os.Getenv(EnvLogFormat); f != "" {
		c.LogFormat = f
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return ErrNoDir
	}
	if c.MaxMemory == 0 {
		return ErrNoMemory
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
