// Package config resolves runtime paths from the environment and loads the
// optional YAML file that tunes grid geometry and decay bands.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"blocks.codes/tui/grid"
)

// Environment variables read by FromEnv.
const (
	EnvDataDir  = "BLOCKS_DATA_DIR"
	EnvDBPath   = "BLOCKS_DB_PATH"
	EnvLogPath  = "BLOCKS_LOG_PATH"
	EnvLogLevel = "BLOCKS_LOG_LEVEL"
	EnvConfig   = "BLOCKS_CONFIG"
)

const defaultDataDir = "$HOME/.local/share/blocks"

// Config is the resolved runtime configuration.
type Config struct {
	DataDir    string
	DBPath     string
	LogPath    string
	LogLevel   slog.Level
	ConfigPath string
	Grid       GridConfig
}

// GridConfig is the YAML-tunable part of the grid. Zero values mean
// default, except for Gap and LabelHeight where only an absent key does.
type GridConfig struct {
	Gap            *int         `yaml:"gap"`
	LabelHeight    *int         `yaml:"label_height"`
	FallbackBox    int          `yaml:"fallback_box"`
	BoxHeightRatio float64      `yaml:"box_height_ratio"`
	Overscan       int          `yaml:"overscan"`
	Baseline       int          `yaml:"baseline"`
	Bands          []BandConfig `yaml:"bands"`
}

// BandConfig is one decay band, e.g. {up_to: 10m, level: 100}.
type BandConfig struct {
	UpTo  time.Duration `yaml:"up_to"`
	Level int           `yaml:"level"`
}

// Load reads .env (if present) and resolves the configuration from the
// process environment.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv resolves the configuration using getenv for lookups.
func FromEnv(getenv func(string) string) (*Config, error) {
	expand := func(s string) string { return os.Expand(s, getenv) }

	cfg := &Config{DataDir: expand(defaultDataDir)}
	if v := getenv(EnvDataDir); v != "" {
		cfg.DataDir = expand(v)
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "data.db")
	if v := getenv(EnvDBPath); v != "" {
		cfg.DBPath = expand(v)
	}
	cfg.LogPath = filepath.Join(cfg.DataDir, "debug.log")
	if v := getenv(EnvLogPath); v != "" {
		cfg.LogPath = expand(v)
	}

	cfg.LogLevel = slog.LevelInfo
	if v := getenv(EnvLogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}

	cfg.ConfigPath = filepath.Join(cfg.DataDir, "config.yaml")
	explicit := false
	if v := getenv(EnvConfig); v != "" {
		cfg.ConfigPath = expand(v)
		explicit = true
	}

	gc, err := LoadGrid(cfg.ConfigPath)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		gc, err = ParseGrid(nil)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	cfg.Grid = *gc
	return cfg, nil
}

// LoadGrid reads a grid YAML file from path and returns a validated GridConfig.
func LoadGrid(path string) (*GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseGrid(data)
}

// ParseGrid unmarshals YAML bytes into a validated GridConfig. Empty input
// yields the defaults.
func ParseGrid(data []byte) (*GridConfig, error) {
	var gc GridConfig
	if err := yaml.Unmarshal(data, &gc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	gc.applyDefaults()
	if err := gc.validate(); err != nil {
		return nil, err
	}
	return &gc, nil
}

// applyDefaults fills in the terminal geometry and the default decay bands.
func (g *GridConfig) applyDefaults() {
	if g.Gap == nil {
		g.Gap = intPtr(1)
	}
	if g.LabelHeight == nil {
		g.LabelHeight = intPtr(1)
	}
	if g.FallbackBox == 0 {
		g.FallbackBox = 3
	}
	if g.BoxHeightRatio == 0 {
		g.BoxHeightRatio = 0.5
	}
	if g.Overscan == 0 {
		g.Overscan = grid.DefaultOverscan
	}
	if len(g.Bands) == 0 {
		for _, b := range grid.DefaultScale().Bands {
			g.Bands = append(g.Bands, BandConfig{UpTo: b.UpTo, Level: b.Level})
		}
	}
}

// validate checks geometry bounds and that the bands form a valid scale.
func (g *GridConfig) validate() error {
	var errs []string
	if g.Gap != nil && *g.Gap < 0 {
		errs = append(errs, "gap must not be negative")
	}
	if g.LabelHeight != nil && *g.LabelHeight < 0 {
		errs = append(errs, "label_height must not be negative")
	}
	if g.FallbackBox < 1 {
		errs = append(errs, "fallback_box must be positive")
	}
	if g.BoxHeightRatio < 0 {
		errs = append(errs, "box_height_ratio must be positive")
	}
	if g.Overscan < 0 {
		errs = append(errs, "overscan must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	if err := g.Scale().Validate(); err != nil {
		return fmt.Errorf("config: bands: %w", err)
	}
	return nil
}

// Scale converts the configured bands into a decay scale.
func (g GridConfig) Scale() grid.Scale {
	s := grid.Scale{Baseline: g.Baseline}
	for _, b := range g.Bands {
		s.Bands = append(s.Bands, grid.Band{UpTo: b.UpTo, Level: b.Level})
	}
	return s
}

// Layout returns the layout configuration for a terminal grid.
func (g GridConfig) Layout() grid.LayoutConfig {
	return grid.LayoutConfig{
		Columns:        grid.Columns,
		Gap:            derefInt(g.Gap),
		LabelHeight:    derefInt(g.LabelHeight),
		FallbackBox:    g.FallbackBox,
		BoxHeightRatio: g.BoxHeightRatio,
	}
}

// GridOptions assembles a grid.Config.
func (g GridConfig) GridOptions() grid.Config {
	return grid.Config{Layout: g.Layout(), Scale: g.Scale(), Overscan: g.Overscan}
}

func intPtr(v int) *int { return &v }

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
