// Package config layers clrmeta's runtime limits and log level from
// defaults, a clrmeta.yaml file, and CLRMETA_* environment variables.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tunables the CLI and library callers may override.
type Config struct {
	// RecursionDepth is a signature nesting cap. It is loaded and validated
	// here; the decoders in package model build their guards with
	// sig.DefaultRecursionLimit and do not read this field.
	RecursionDepth int `mapstructure:"recursion_depth"`
	// ConvergenceIterations is a cap on the builder's width-recomputation
	// rounds. It is loaded and validated here; the builder uses
	// schema.MaxConvergenceIterations() and does not read this field.
	ConvergenceIterations int `mapstructure:"convergence_iterations"`
	// LogLevel is one of zap's level names: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load layers defaults, an optional clrmeta.yaml in the working directory,
// and CLRMETA_* environment variables, in that order of increasing
// precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("recursion_depth", 100)
	v.SetDefault("convergence_iterations", 4)
	v.SetDefault("log_level", "info")

	v.SetConfigName("clrmeta")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLRMETA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading clrmeta.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.RecursionDepth <= 0 {
		return fmt.Errorf("config: recursion_depth must be positive, got %d", cfg.RecursionDepth)
	}
	if cfg.ConvergenceIterations <= 0 {
		return fmt.Errorf("config: convergence_iterations must be positive, got %d", cfg.ConvergenceIterations)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unrecognized log_level %q", cfg.LogLevel)
	}
	return nil
}
