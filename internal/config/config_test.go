package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.Equal(t, 5000, cfg.Model.SyntheticSamples)
	assert.InDelta(t, 0.09, cfg.Model.Contamination, 1e-9)
	assert.Equal(t, 200, cfg.Model.BoostingRounds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 512, cfg.API.VerdictCacheSize)
	assert.False(t, m.IsProduction())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("FAIRTRIAL_SERVER_PORT", "9090")
	t.Setenv("FAIRTRIAL_MODEL_SYNTHETIC_SAMPLES", "1000")
	t.Setenv("FAIRTRIAL_ENVIRONMENT", "production")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 9090, m.GetConfig().Server.Port)
	assert.Equal(t, 1000, m.GetConfig().Model.SyntheticSamples)
	assert.True(t, m.IsProduction())
}

func TestValidate(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	tests := []struct {
		name   string
		mutate func()
	}{
		{"bad port", func() { m.config.Server.Port = -1 }},
		{"missing model dir", func() { m.config.Model.Dir = "" }},
		{"bad contamination", func() { m.config.Model.Contamination = 0.6 }},
		{"bad learning rate", func() { m.config.Model.LearningRate = 0 }},
		{"missing database path", func() { m.config.Database.Path = "" }},
		{"bad upload size", func() { m.config.API.MaxUploadBytes = 0 }},
		{"bad log level", func() { m.config.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, m.Reload())
			tt.mutate()
			assert.Error(t, m.Validate())
		})
	}
}
