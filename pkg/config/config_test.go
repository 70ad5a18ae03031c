package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendConfig struct {
	BaseURL    string        `env:"CFGTEST_BACKEND_URL" envDefault:"http://localhost:8080"`
	Timeout    time.Duration `env:"CFGTEST_TIMEOUT" envDefault:"10s"`
	MaxStores  int           `env:"CFGTEST_MAX_STORES" envDefault:"4"`
	Production bool          `env:"CFGTEST_PRODUCTION" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg backendConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxStores)
	assert.False(t, cfg.Production)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("CFGTEST_BACKEND_URL", "http://backend:9000")
	t.Setenv("CFGTEST_TIMEOUT", "250ms")
	t.Setenv("CFGTEST_PRODUCTION", "true")

	var cfg backendConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "http://backend:9000", cfg.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Production)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CFGTEST_MAX_STORES", "four")

	var cfg backendConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("BLUE_CFGTEST_BACKEND_URL", "http://blue:8080")

	var cfg backendConfig
	require.NoError(t, LoadWithPrefix(&cfg, "BLUE_"))
	assert.Equal(t, "http://blue:8080", cfg.BaseURL)
}

func TestLoad_NonPointer(t *testing.T) {
	var cfg backendConfig
	assert.Error(t, Load(cfg))
}
