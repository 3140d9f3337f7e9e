package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Server.Mode)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Outbox.MaxDeliveries)
	assert.Equal(t, 30*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, []string{"training_data.json", "../training_data.json"}, cfg.CorpusPaths())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  enabled: true
  host: db.internal
security:
  encryption_key: "0123456789abcdef"
outbox:
  batch_size: 50
`)
	t.Setenv("MEDILENS_SERVER_PORT", "9090")
	t.Setenv("MEDILENS_RATE_LIMIT_BURST", "42")
	t.Setenv("MEDILENS_OUTBOX_POLL_INTERVAL", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 42, cfg.RateLimit.Burst)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")

	worker := cfg.Outbox.ToWorkerConfig()
	assert.Equal(t, 50, worker.BatchSize)
	assert.Equal(t, cfg.Outbox.Retention, worker.Retention)

	broker := cfg.Redis.ToBrokerConfig()
	assert.Equal(t, cfg.Redis.URL, broker.URL)
	assert.Equal(t, "medilens:", broker.ChannelPrefix)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "database without key",
			body:    "database:\n  enabled: true\n",
			wantErr: "encryption_key is required",
		},
		{
			name:    "bad key length",
			body:    "security:\n  encryption_key: short\n",
			wantErr: "must be 16, 24 or 32 bytes",
		},
		{
			name:    "bad port",
			body:    "server:\n  port: -1\n",
			wantErr: "invalid server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
