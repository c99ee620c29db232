// Package config loads the engine's TOML configuration. Every field has a
// built-in default; CLI flags override whatever the file provides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tracevis/tracevis/counter"
	"github.com/tracevis/tracevis/perf"
)

type EngineConfig struct {
	Workers    int    `toml:"workers"`
	ResultFile string `toml:"resultFile"`
	PerfDir    string `toml:"perfDir"`
}

type FilterConfig struct {
	Output string `toml:"output"`
}

type LiveConfig struct {
	Listen        string `toml:"listen"`
	LogFile       string `toml:"logFile"`
	WindowSeconds int64  `toml:"windowSeconds"`
	WindowMaxSize int    `toml:"windowMaxSize"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Engine EngineConfig `toml:"engine"`
	Filter FilterConfig `toml:"filter"`
	Live   LiveConfig   `toml:"live"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:    counter.DefaultWorkers,
			ResultFile: "result.txt",
			PerfDir:    perf.DefaultDir,
		},
		Filter: FilterConfig{
			Output: "filtered_logs.csv",
		},
		Live: LiveConfig{
			Listen:        ":5044",
			LogFile:       "received_logs.csv",
			WindowSeconds: 7200,
			WindowMaxSize: 100000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Engine.Workers <= 0 {
		cfg.Engine.Workers = counter.DefaultWorkers
	}
	return cfg, nil
}
