package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// Format names a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type Config struct {
	Log       LogConfig       `yaml:"log" toml:"log"`
	Scene     SceneConfig     `yaml:"scene" toml:"scene"`
	Loop      LoopConfig      `yaml:"loop" toml:"loop"`
	Inspector InspectorConfig `yaml:"inspector" toml:"inspector"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" or "console"
}

type SceneConfig struct {
	Name            string `yaml:"name" toml:"name"`
	InitialCapacity int    `yaml:"initial_capacity" toml:"initial_capacity"`
	MaxDrainPasses  int    `yaml:"max_drain_passes" toml:"max_drain_passes"`
}

type LoopConfig struct {
	TickRate time.Duration `yaml:"tick_rate" toml:"tick_rate"`
	MaxTicks uint64        `yaml:"max_ticks" toml:"max_ticks"` // 0 runs until stopped
}

type InspectorConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled"`
	Address  string        `yaml:"address" toml:"address"`
	Interval time.Duration `yaml:"interval" toml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Scene: SceneConfig{
			Name:            "main",
			InitialCapacity: 4,
			MaxDrainPasses:  16,
		},
		Loop: LoopConfig{
			TickRate: 16 * time.Millisecond,
		},
		Inspector: InspectorConfig{
			Enabled:  false,
			Address:  "127.0.0.1:7070",
			Interval: time.Second,
		},
	}
}

// Load reads path and decodes it over the defaults. The format follows the file
// extension: .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FormatOf picks the decoder for a config path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("config %s: %w", path, ErrUnknownFormat)
	}
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown key %s", undecoded[0])
		}
	default:
		return nil, ErrUnknownFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := log.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level %q: %w", c.Log.Level, ErrInvalid))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q: %w", c.Log.Format, ErrInvalid))
	}
	if c.Scene.InitialCapacity <= 0 {
		errs = append(errs, fmt.Errorf("scene.initial_capacity %d: %w", c.Scene.InitialCapacity, ErrInvalid))
	}
	if c.Scene.MaxDrainPasses <= 0 {
		errs = append(errs, fmt.Errorf("scene.max_drain_passes %d: %w", c.Scene.MaxDrainPasses, ErrInvalid))
	}
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_rate %s: %w", c.Loop.TickRate, ErrInvalid))
	}
	if c.Inspector.Enabled {
		if c.Inspector.Address == "" {
			errs = append(errs, fmt.Errorf("inspector.address is empty: %w", ErrInvalid))
		}
		if c.Inspector.Interval <= 0 {
			errs = append(errs, fmt.Errorf("inspector.interval %s: %w", c.Inspector.Interval, ErrInvalid))
		}
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level; Validate guarantees it parses.
func (c *Config) Level() log.Level {
	lvl, _ := log.ParseLevel(c.Log.Level)
	return lvl
}
