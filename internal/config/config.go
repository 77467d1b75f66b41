package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Editor    EditorConfig    `toml:"editor"`
	HitTest   HitTestConfig   `toml:"hit_test"`
	Data      DataConfig      `toml:"data"`
	Database  DatabaseConfig  `toml:"database"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EditorConfig struct {
	TickRate           time.Duration `toml:"tick_rate"`
	HistoryCapacity    int           `toml:"history_capacity"`
	MaxCommandsPerTick int           `toml:"max_commands_per_tick"`
	AutosaveInterval   int           `toml:"autosave_interval"` // ticks; 0 disables autosave
	CommandQueueSize   int           `toml:"command_queue_size"`
}

type HitTestConfig struct {
	RoadSampleStep     float64 `toml:"road_sample_step"`
	RoadRadius         float64 `toml:"road_radius"`
	IntersectionRadius float64 `toml:"intersection_radius"`
}

type DataConfig struct {
	SeedRoads         string `toml:"seed_roads"`         // read-only dataset
	SeedIntersections string `toml:"seed_intersections"` // read-only dataset
	Roads             string `toml:"roads"`              // working dataset
	Intersections     string `toml:"intersections"`      // working dataset
	Surfaces          string `toml:"surfaces"`
	Encoding          string `toml:"encoding"` // charset label of CSV input, e.g. "utf-8", "big5"
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the snapshot mirror
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the HTTP endpoint
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads a TOML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Editor.TickRate <= 0 {
		return fmt.Errorf("editor.tick_rate must be positive")
	}
	if c.Editor.HistoryCapacity <= 0 {
		return fmt.Errorf("editor.history_capacity must be positive")
	}
	if c.Editor.MaxCommandsPerTick <= 0 {
		return fmt.Errorf("editor.max_commands_per_tick must be positive")
	}
	if c.HitTest.RoadRadius < 0 || c.HitTest.IntersectionRadius < 0 {
		return fmt.Errorf("hit_test radii must not be negative")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Editor: EditorConfig{
			TickRate:           50 * time.Millisecond,
			HistoryCapacity:    15,
			MaxCommandsPerTick: 32,
			AutosaveInterval:   1200, // 1200 ticks × 50ms = 1 minute
			CommandQueueSize:   128,
		},
		HitTest: HitTestConfig{
			RoadSampleStep:     10,
			RoadRadius:         5,
			IntersectionRadius: 6,
		},
		Data: DataConfig{
			SeedRoads:         "sample/roads.csv",
			SeedIntersections: "sample/intersections.csv",
			Roads:             "data/roads.csv",
			Intersections:     "data/intersections.csv",
			Surfaces:          "data/yaml/surfaces.yaml",
			Encoding:          "utf-8",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts/lua",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
