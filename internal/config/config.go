package config

import (
	"fmt"
	"os"
	"strconv"

	"gouq/internal/distribution"
	"gouq/internal/errors"
	"gouq/internal/polychaos"
	"gouq/internal/uncertainty"
)

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig
	Logging LoggingConfig
}

// EngineConfig holds the uncertainty quantification settings
type EngineConfig struct {
	P                  int
	QuadratureOrder    int
	Sparse             bool
	NrCollocationNodes int
	NrMCSamples        int
	NrPCMCSamples      int
	AllowIncomplete    bool
	MCRule             string
	CollocationRule    string
	PCMCRule           string
	Regression         string
	TikhonovAlpha      float64
	Seed               uint64
	Seeded             bool
	CPUs               int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
	File  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	engine, err := loadEngineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}

	config := &Config{
		Engine:  *engine,
		Logging: *loadLoggingConfig(),
	}

	if _, err := config.Engine.Options(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadEngineConfig() (*EngineConfig, error) {
	defaults := uncertainty.DefaultOptions()
	cfg := &EngineConfig{
		P:                  getEnvIntOrDefault("UQ_P", defaults.P),
		QuadratureOrder:    getEnvIntOrDefault("UQ_QUADRATURE_ORDER", defaults.QuadratureOrder),
		Sparse:             getEnvBoolOrDefault("UQ_SPARSE", defaults.Sparse),
		NrCollocationNodes: getEnvIntOrDefault("UQ_COLLOCATION_NODES", defaults.NrCollocationNodes),
		NrMCSamples:        getEnvIntOrDefault("UQ_MC_SAMPLES", defaults.NrMCSamples),
		NrPCMCSamples:      getEnvIntOrDefault("UQ_PC_MC_SAMPLES", defaults.NrPCMCSamples),
		AllowIncomplete:    getEnvBoolOrDefault("UQ_ALLOW_INCOMPLETE", defaults.AllowIncomplete),
		MCRule:             getEnvOrDefault("UQ_MC_RULE", string(defaults.MCRule)),
		CollocationRule:    getEnvOrDefault("UQ_COLLOCATION_RULE", string(defaults.CollocationRule)),
		PCMCRule:           getEnvOrDefault("UQ_PC_MC_RULE", string(defaults.PCMCRule)),
		Regression:         getEnvOrDefault("UQ_REGRESSION", string(defaults.Regression.Rule)),
		TikhonovAlpha:      getEnvFloatOrDefault("UQ_TIKHONOV_ALPHA", 1e-6),
		CPUs:               getEnvIntOrDefault("UQ_CPUS", 0),
	}

	if value := os.Getenv("UQ_SEED"); value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("UQ_SEED must be an unsigned integer, got %q", value))
		}
		cfg.Seed = seed
		cfg.Seeded = true
	}
	return cfg, nil
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level: getEnvOrDefault("LOG_LEVEL", "WARN"),
		File:  getEnvOrDefault("LOG_FILE", ""),
	}
}

// Options converts the settings into engine options.
func (c EngineConfig) Options() (uncertainty.Options, error) {
	opts := uncertainty.Options{
		P:                  c.P,
		QuadratureOrder:    c.QuadratureOrder,
		Sparse:             c.Sparse,
		NrCollocationNodes: c.NrCollocationNodes,
		NrMCSamples:        c.NrMCSamples,
		NrPCMCSamples:      c.NrPCMCSamples,
		AllowIncomplete:    c.AllowIncomplete,
		Seed:               c.Seed,
		Seeded:             c.Seeded,
	}

	var err error
	if opts.MCRule, err = distribution.ParseRule(c.MCRule); err != nil {
		return opts, errors.ConfigInvalidCause(err, "invalid monte carlo sampling rule")
	}
	if opts.CollocationRule, err = distribution.ParseRule(c.CollocationRule); err != nil {
		return opts, errors.ConfigInvalidCause(err, "invalid collocation sampling rule")
	}
	if opts.PCMCRule, err = distribution.ParseRule(c.PCMCRule); err != nil {
		return opts, errors.ConfigInvalidCause(err, "invalid surrogate sampling rule")
	}
	rule, err := polychaos.ParseRegressionRule(c.Regression)
	if err != nil {
		return opts, errors.ConfigInvalidCause(err, "invalid regression rule")
	}
	opts.Regression = polychaos.Regression{Rule: rule, Alpha: c.TikhonovAlpha}

	if c.P < 0 || c.QuadratureOrder < 0 || c.NrCollocationNodes < 0 || c.NrMCSamples < 1 || c.NrPCMCSamples < 1 {
		return opts, errors.ConfigInvalid("polynomial order, quadrature order and sample counts must be positive")
	}
	return opts, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
