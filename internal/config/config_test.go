package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "glg.db", cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Storage.Redis.Timeout)
	assert.Equal(t, "https://localhost:5001/api", cfg.Remote.BaseURL)
	assert.Equal(t, "Token", cfg.Remote.AuthScheme)
	assert.Equal(t, 20*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "Local", cfg.Device.Location)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
storage: {
	driver: "redis"
	namespace: "glg"
	redis: {
		addr: "cache:6379"
		db: 2
		timeout: "500ms"
	}
}
remote: {
	baseURL: "https://glg.example.com/api"
	authScheme: "Bearer"
}
device: location: "UTC"
`))
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "glg", cfg.Storage.Namespace)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 500*time.Millisecond, cfg.Storage.Redis.Timeout)
	assert.Equal(t, "Bearer", cfg.Remote.AuthScheme)
	assert.Equal(t, "glg.db", cfg.Storage.Path, "unset fields keep defaults")

	loc, err := cfg.Device.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown driver":  `storage: driver: "postgres"`,
		"unknown field":   `storage: cache: true`,
		"bad url":         `remote: baseURL: "localhost:5001"`,
		"bad duration":    `remote: timeout: "soon"`,
		"negative db":     `storage: redis: db: -1`,
		"bad location":    `device: location: "Mars/Olympus"`,
		"syntax error":    `storage: {`,
		"zero timeout":    `storage: redis: timeout: "0s"`,
		"unknown section": `metrics: enabled: true`,
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var cerr *ConfigError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glg.cue")
	require.NoError(t, os.WriteFile(path, []byte(`storage: driver: "memory"`+"\n"), 0o644))
	t.Setenv(EnvAPIURL, "https://staging.example.com/api")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "https://staging.example.com/api", cfg.Remote.BaseURL)
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`storage: driver: 3`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
