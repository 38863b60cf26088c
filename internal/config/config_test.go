package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RENTALHUB_TEST_ADMIN_KEY", "secret-admin-key")

	path := writeConfig(t, `
app:
  name: rentalhub
  environment: test
storage:
  driver: sqlite
  path: data/test.db
service:
  latency: 0s
  review_request_delay: 2s
api:
  auth:
    enabled: true
    api_keys:
      - name: admin
        key: ${RENTALHUB_TEST_ADMIN_KEY}
        permissions: [admin]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/test.db", cfg.Storage.Path)
	assert.Equal(t, time.Duration(0), cfg.Service.LatencyDuration())
	assert.Equal(t, 2*time.Second, cfg.Service.ReviewRequestDelay)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, "secret-admin-key", cfg.API.Auth.APIKeys[0].Key)

	// defaults
	assert.Equal(t, "main", cfg.Storage.DocumentName)
	assert.Equal(t, 3, cfg.Storage.MaxConflictRetries)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: x\n"))
	require.NoError(t, err)

	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data/rentalhub.json", cfg.Storage.Path)
	assert.Equal(t, DefaultLatency, cfg.Service.LatencyDuration())
	assert.Equal(t, time.Second, cfg.Service.ReviewRequestDelay)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage: [not, a, map]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestValidateConfig(t *testing.T) {
	negative := -time.Second

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory driver", mutate: func(c *Config) { c.Storage = StorageConfig{Driver: DriverMemory} }},
		{name: "sqlite without path", mutate: func(c *Config) { c.Storage = StorageConfig{Driver: DriverSQLite} }, wantErr: true},
		{name: "redis without address", mutate: func(c *Config) { c.Storage.Driver = DriverRedis }, wantErr: true},
		{name: "redis with address", mutate: func(c *Config) {
			c.Storage.Driver = DriverRedis
			c.Redis.Address = "localhost:6379"
		}},
		{name: "negative latency", mutate: func(c *Config) { c.Service.Latency = &negative }, wantErr: true},
		{name: "duplicate api key", mutate: func(c *Config) {
			c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Name: "a"}, {Key: "k", Name: "b"}}
		}, wantErr: true},
		{name: "empty api key", mutate: func(c *Config) {
			c.API.Auth.APIKeys = []APIClientKey{{Name: "a"}}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
