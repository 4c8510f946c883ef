// Package config loads persistent defaults for the neurofold CLI.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds persistent defaults loaded from config files.
type Config struct {
	Parse    ParseConfig    `yaml:"parse"`
	Export   ExportConfig   `yaml:"export"`
	Serve    ServeConfig    `yaml:"serve"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ParseConfig holds parse defaults shared by every command that reads a log.
type ParseConfig struct {
	Patterns string `yaml:"patterns"`
	Format   string `yaml:"format"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Format  string `yaml:"format"`
	Dataset string `yaml:"dataset"`
	To      string `yaml:"to"`
}

// ServeConfig holds HTTP API defaults.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultsConfig holds global defaults.
type DefaultsConfig struct {
	Timeout string `yaml:"timeout"`
	Verbose bool   `yaml:"verbose"`
}

// Load reads ~/.neurofold/config.yaml then ./.neurofold.yaml, the latter
// overriding the former, then applies NEUROFOLD_* environment overrides.
// Missing files are not errors.
func Load() *Config {
	cfg := &Config{}

	if home, err := os.UserHomeDir(); err == nil {
		_ = loadFile(filepath.Join(home, ".neurofold", "config.yaml"), cfg)
	}
	_ = loadFile(".neurofold.yaml", cfg)

	applyEnv(cfg)
	return cfg
}

// LoadFrom reads config from an explicit path. Unlike Load, a missing or
// malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	strs := []struct {
		env string
		dst *string
	}{
		{"NEUROFOLD_PARSE_PATTERNS", &cfg.Parse.Patterns},
		{"NEUROFOLD_PARSE_FORMAT", &cfg.Parse.Format},
		{"NEUROFOLD_EXPORT_FORMAT", &cfg.Export.Format},
		{"NEUROFOLD_EXPORT_DATASET", &cfg.Export.Dataset},
		{"NEUROFOLD_EXPORT_TO", &cfg.Export.To},
		{"NEUROFOLD_SERVE_ADDR", &cfg.Serve.Addr},
		{"NEUROFOLD_TIMEOUT", &cfg.Defaults.Timeout},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	if v := os.Getenv("NEUROFOLD_VERBOSE"); v != "" {
		cfg.Defaults.Verbose = strings.EqualFold(v, "true") || v == "1"
	}
}
