package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"listTracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestLoad тестирует чтение YAML поверх значений по умолчанию
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  allowed_origins: ["https://lists.example"]
repository:
  type: postgres
database:
  url: postgres://u:p@localhost:5432/lists
auth:
  secret: s3cret
worker:
  interval: 30s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, []string{"https://lists.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres", cfg.Repository.Type)
	assert.Equal(t, 30*time.Second, cfg.Worker.Interval)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
}

// TestLoad_EnvOverrides тестирует переопределение через LISTS_*
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: from-file
`)
	t.Setenv("LISTS_AUTH_SECRET", "from-env")
	t.Setenv("LISTS_PORT", "7000")
	t.Setenv("LISTS_ALLOWED_ORIGINS", "http://a, http://b")
	t.Setenv("LISTS_WORKER_INTERVAL", "1m")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Worker.Interval)
}

// TestLoad_Invalid тестирует ошибки конфигурации
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "broken yaml", body: "server: [", env: nil},
		{name: "no secret", body: "repository:\n  type: inmemory\n"},
		{name: "postgres without url", body: "repository:\n  type: postgres\nauth:\n  secret: x\n"},
		{name: "unknown repository", body: "repository:\n  type: mongo\nauth:\n  secret: x\n"},
		{name: "bad env int", body: "auth:\n  secret: x\n", env: map[string]string{"LISTS_RATE_LIMIT": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

// TestLoad_MissingFile тестирует запуск без файла конфигурации
func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("LISTS_AUTH_SECRET", "x")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "inmemory", cfg.Repository.Type)
}
