// Package config loads server configuration from files and environment
// variables via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fairtrial-bias-server/internal/domain"
)

// Manager loads and validates the server configuration.
type Manager struct {
	config *domain.Config
}

// NewManager creates a configuration manager and loads configuration
// from config files, environment variables, and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/fairtrial-bias-server/")

	viper.SetEnvPrefix("FAIRTRIAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Model defaults mirror the production training configuration.
	viper.SetDefault("model.dir", "./data/models")
	viper.SetDefault("model.seed", 42)
	viper.SetDefault("model.synthetic_samples", 5000)
	viper.SetDefault("model.contamination", 0.09)
	viper.SetDefault("model.boosting_rounds", 200)
	viper.SetDefault("model.learning_rate", 0.05)
	viper.SetDefault("model.max_depth", 6)
	viper.SetDefault("model.forest_trees", 100)

	// Database defaults
	viper.SetDefault("database.path", "./data/verdicts.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// API defaults
	viper.SetDefault("api.analyze_rate_per_second", 5)
	viper.SetDefault("api.analyze_rate_burst", 10)
	viper.SetDefault("api.verdict_cache_size", 512)
	viper.SetDefault("api.max_upload_bytes", 10<<20)
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns model configuration.
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// Reload reloads the configuration.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate checks the loaded configuration for values the server cannot
// start with.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Model.Dir == "" {
		return fmt.Errorf("model directory is required")
	}
	if config.Model.Contamination <= 0 || config.Model.Contamination >= 0.5 {
		return fmt.Errorf("invalid contamination %.3f: must be in (0, 0.5)", config.Model.Contamination)
	}
	if config.Model.LearningRate <= 0 || config.Model.LearningRate > 1 {
		return fmt.Errorf("invalid learning rate: %.3f", config.Model.LearningRate)
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if config.API.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max upload size: %d", config.API.MaxUploadBytes)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
