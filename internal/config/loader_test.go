package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, 8, cfg.Geocoder.ResultLimit)
	assert.Equal(t, 3, cfg.Search.MinChars)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 50.0, cfg.Risk.AltTriggerPercent)
	assert.Equal(t, 30.0, cfg.Scan.RadiusKm)
	assert.Equal(t, 6, cfg.Scan.NumPoints)
	assert.Equal(t, 40.0, cfg.Scan.MaxRiskPercent)
	assert.InDelta(t, 6.37, cfg.Map.DefaultLat, 1e-9)
	assert.InDelta(t, 2.39, cfg.Map.DefaultLon, 1e-9)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RISK_API_BASE_URL", "https://risk.example.com")
	t.Setenv("ALT_TRIGGER_PERCENT", "60")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "https://risk.example.com", cfg.Risk.BaseURL)
	assert.Equal(t, 60.0, cfg.Risk.AltTriggerPercent)
	assert.Equal(t, 150*time.Millisecond, cfg.Search.Debounce)
}

func TestLoadConfig_RejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "sandbox")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrValidation, cfgErr.Type)
}

func TestLoadConfig_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("SEARCH_DEBOUNCE", "not-a-duration")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrParsing, cfgErr.Type)
}

func TestLoadConfig_RejectsOutOfRangeTrigger(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("ALT_TRIGGER_PERCENT", "150")

	_, err := LoadConfig()
	require.Error(t, err)
}
