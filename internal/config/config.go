// Package config loads client settings from defaults, an optional YAML or
// JSON file and the environment, in that order of precedence (later wins).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint = "http://127.0.0.1:8080"
	DefaultTimeout  = 10 * time.Second
)

// Config holds everything needed to reach an engine.
type Config struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint" env:"TENDRIL_ENDPOINT"`
	Credentials    string        `yaml:"token" json:"token" env:"TENDRIL_TOKEN"`
	Timeout        time.Duration `yaml:"timeout" json:"-" env:"TENDRIL_TIMEOUT"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout" json:"-" env:"TENDRIL_RESOLVE_TIMEOUT"`
	LogLevel       string        `yaml:"log_level" json:"log_level" env:"TENDRIL_LOG_LEVEL"`
}

// jsonDurations lets JSON files spell durations as "5s" like YAML does.
type jsonDurations struct {
	Timeout        string `json:"timeout"`
	ResolveTimeout string `json:"resolve_timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Timeout:  DefaultTimeout,
	}
}

// Load builds a Config from defaults, the file at path (skipped when path
// is empty) and TENDRIL_* environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		var d jsonDurations
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := setDuration(&cfg.Timeout, d.Timeout); err != nil {
			return fmt.Errorf("%s: timeout: %w", path, err)
		}
		if err := setDuration(&cfg.ResolveTimeout, d.ResolveTimeout); err != nil {
			return fmt.Errorf("%s: resolve_timeout: %w", path, err)
		}
		return nil
	}

	// Default to YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func setDuration(dst *time.Duration, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
