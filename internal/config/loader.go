// Package config loads the planner's runtime configuration from an optional
// JSON or YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config captures the settings of the planner service.
type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
	Planning PlanningConfig `json:"planning"`
	Workday  WorkdayConfig  `json:"workday"`
}

type HTTPConfig struct {
	Port int `json:"port"`
}

type StorageConfig struct {
	// Driver selects the persistence backend: "sqlite" or "memory".
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type LoggingConfig struct {
	// Level accepts slog level names: debug, info, warn, error.
	Level string `json:"level"`
}

// PlanningConfig tunes the auto-scheduler and the capacity engine.
type PlanningConfig struct {
	// HorizonWeeks bounds how far ahead a scheduling run may place blocks.
	HorizonWeeks int `json:"horizon_weeks"`
	// BreakMinutes is deducted from each workday's capacity.
	BreakMinutes int `json:"break_minutes"`
}

// WorkdayConfig is the default weekly shape applied to persons created
// without explicit working hours.
type WorkdayConfig struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []int  `json:"days"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Port: 8080},
		Storage: StorageConfig{Driver: "sqlite", DSN: "file:planner.db?_pragma=foreign_keys(1)"},
		Logging: LoggingConfig{Level: "info"},
		Planning: PlanningConfig{
			HorizonWeeks: 12,
			BreakMinutes: 60,
		},
		Workday: WorkdayConfig{
			Start: "08:00",
			End:   "17:00",
			Days:  []int{1, 2, 3, 4, 5},
		},
	}
}

// Load reads the file at path (JSON or YAML, selected by extension) and then
// applies PLANNER_-prefixed environment overrides, where "__" separates
// nesting levels (PLANNER_HTTP__PORT=9090 sets http.port). An empty path
// skips the file layer.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return Config{}, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("PLANNER_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "planner_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first set of invalid settings.
func (c Config) Validate() error {
	invalid := make([]string, 0, 2)

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		invalid = append(invalid, "http.port")
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		invalid = append(invalid, "storage.driver")
	}
	if c.Storage.Driver == "sqlite" && strings.TrimSpace(c.Storage.DSN) == "" {
		invalid = append(invalid, "storage.dsn")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		invalid = append(invalid, "logging.level")
	}
	if c.Planning.HorizonWeeks <= 0 {
		invalid = append(invalid, "planning.horizon_weeks")
	}
	if c.Planning.BreakMinutes < 0 {
		invalid = append(invalid, "planning.break_minutes")
	}
	if len(c.Workday.Days) == 0 {
		invalid = append(invalid, "workday.days")
	}
	for _, d := range c.Workday.Days {
		if d < 0 || d > 6 {
			invalid = append(invalid, "workday.days")
			break
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
