package domain

import "time"

// Config is the complete server configuration.
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Model       ModelConfig    `mapstructure:"model"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	API         APIConfig      `mapstructure:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ModelConfig holds the model directory and training hyperparameters.
// Changing training parameters only takes effect on the next retrain.
type ModelConfig struct {
	Dir              string  `mapstructure:"dir"`
	Seed             int64   `mapstructure:"seed"`
	SyntheticSamples int     `mapstructure:"synthetic_samples"`
	Contamination    float64 `mapstructure:"contamination"`
	BoostingRounds   int     `mapstructure:"boosting_rounds"`
	LearningRate     float64 `mapstructure:"learning_rate"`
	MaxDepth         int     `mapstructure:"max_depth"`
	ForestTrees      int     `mapstructure:"forest_trees"`
}

// DatabaseConfig holds the verdict audit store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds API-surface settings: rate limits and the verdict
// cache keyed by raw data hash.
type APIConfig struct {
	AnalyzeRatePerSecond float64 `mapstructure:"analyze_rate_per_second"`
	AnalyzeRateBurst     int     `mapstructure:"analyze_rate_burst"`
	VerdictCacheSize     int     `mapstructure:"verdict_cache_size"`
	MaxUploadBytes       int64   `mapstructure:"max_upload_bytes"`
}
