// Package config carries the runtime configuration for pmcconf. Values come
// from the environment first and are overridden by CLI flags.
package config

import "github.com/caarlos0/env/v11"

type Config struct {
	// File is the PMC document to operate on.
	File string `env:"PMC_FILE"`
	// NoBackup suppresses the <file>.backup copy on save.
	NoBackup bool `env:"PMC_NO_BACKUP"`
	// LogLevel is a zap level name.
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// FromEnv builds a Config from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
