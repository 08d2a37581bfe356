package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: /tmp/regressoor.db
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLogLevel, cfg.Global.LogLevel)
	assert.Equal(t, config.DefaultListen, cfg.Server.Listen)
	assert.Equal(t, config.DefaultCompareGateCapacity, cfg.Compare.GateCapacity)
	assert.Equal(t, config.DefaultCompareGateWait, cfg.Compare.GateWait)
	assert.Equal(t, config.DefaultHistoryWindow, cfg.History.Window)
	assert.Equal(t, config.DefaultHistoryMinSamples, cfg.History.MinSamples)
	assert.Equal(t, 100*time.Millisecond, cfg.GateWaitDuration())
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
global:
  log_level: debug

server:
  listen: ":9090"
  cors_origins:
    - https://example.com
  rate_limit:
    enabled: true
    public:
      requests_per_minute: 120

database:
  driver: postgres
  postgres:
    host: db.internal
    port: 5432
    user: regressoor
    password: secret
    database: regressoor
    ssl_mode: require

compare:
  gate_capacity: 4
  gate_wait: 250ms

history:
  window: 50
  min_samples: 5
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 120, cfg.Server.RateLimit.Public.RequestsPerMinute)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 4, cfg.Compare.GateCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.GateWaitDuration())
	assert.Equal(t, 50, cfg.History.Window)
	assert.Equal(t, 5, cfg.History.MinSamples)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [not: valid")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		path := writeConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: /tmp/regressoor.db
`)

		cfg, err := config.Load(path)
		require.NoError(t, err)

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "valid sqlite",
			mutate: func(*config.Config) {},
		},
		{
			name: "missing driver",
			mutate: func(c *config.Config) {
				c.Database.Driver = ""
			},
			wantErr: "database.driver is required",
		},
		{
			name: "unsupported driver",
			mutate: func(c *config.Config) {
				c.Database.Driver = "mysql"
			},
			wantErr: "unsupported database driver",
		},
		{
			name: "sqlite without path",
			mutate: func(c *config.Config) {
				c.Database.SQLite.Path = ""
			},
			wantErr: "database.sqlite.path is required",
		},
		{
			name: "postgres without host",
			mutate: func(c *config.Config) {
				c.Database.Driver = "postgres"
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "negative gate capacity",
			mutate: func(c *config.Config) {
				c.Compare.GateCapacity = -1
			},
			wantErr: "compare.gate_capacity must not be negative",
		},
		{
			name: "unparseable gate wait",
			mutate: func(c *config.Config) {
				c.Compare.GateWait = "soonish"
			},
			wantErr: "parsing compare.gate_wait",
		},
		{
			name: "rate limit enabled without rate",
			mutate: func(c *config.Config) {
				c.Server.RateLimit.Enabled = true
			},
			wantErr: "requests_per_minute must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
