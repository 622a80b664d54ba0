package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
)

const validConfigYAML = `
server:
  http:
    host: "127.0.0.1"
    port: 8080
database:
  postgres:
    host: "localhost"
    port: 5432
    database: "foia"
    username: "foia"
    password: "secret"
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  group_id: "tracker"
storage:
  minio:
    endpoint: "localhost:9000"
    access_key_id: "key"
    secret_access_key: "secret"
tracker:
  scan_interval: 30m
  lock_enabled: true
  timezone: "Asia/Kolkata"
  thresholds:
    overrides:
      INDIA:
        - id: "T-7"
          kind: "upcoming"
          offset_days: 7
          level: "warning"
        - id: "overdue"
          kind: "overdue"
          level: "overdue"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.HTTP.Host)
	assert.Equal(t, StorePostgres, cfg.Tracker.Store)
	assert.Equal(t, 30*time.Minute, cfg.Tracker.ScanInterval)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)

	set, err := cfg.Tracker.ThresholdSet(jurisdiction.NewRegistry())
	require.NoError(t, err)
	assert.Len(t, set.For(jurisdiction.India), 2)
	assert.Equal(t, "T-7", set.For(jurisdiction.India)[0].ID)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "tracker: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "tracker:\n  store: sqlite\n")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("FOIA_SERVER_HTTP_PORT", "9999")
	t.Setenv("FOIA_DATABASE_POSTGRES_HOST", "db-host")

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTP.Port)
	assert.Equal(t, "db-host", cfg.Database.Postgres.Host)
}

func TestLoad_WithSearchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(validConfigYAML), 0o644))

	cfg, err := Load(WithSearchPaths(filepath.Join(dir, "absent"), dir))
	require.NoError(t, err)
	assert.Equal(t, "tracker", cfg.Kafka.GroupID)
}

func TestLoad_WithOverrides(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("FOIA_SERVER_HTTP_PORT", "9999")

	cfg, err := Load(WithConfigPath(path), WithOverrides(map[string]interface{}{
		"server.http.port": 7777,
	}))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTP.Port)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("FOIA_TRACKER_STORE", "memory")
	t.Setenv("FOIA_TRACKER_SCAN_INTERVAL", "15m")
	t.Setenv("FOIA_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FOIA_LOG_LEVEL", "debug")
	t.Setenv("FOIA_SERVER_HTTP_CORS_ORIGINS", "https://dash.newsroom.org,*.example.org")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Tracker.Store)
	assert.Equal(t, 15*time.Minute, cfg.Tracker.ScanInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://dash.newsroom.org", "*.example.org"}, cfg.Server.HTTP.CORSOrigins)
}

func TestMustLoad(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() { MustLoad(WithConfigPath(path)) })
	assert.Panics(t, func() { MustLoad(WithConfigPath("non_existent.yaml")) })
}

func TestLoad_SetsCurrentConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Same(t, cfg, Get())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	levels := make(chan string, 16)
	require.NoError(t, Watch(path, func(c *Config) {
		select {
		case levels <- c.Log.Level:
		default:
		}
	}, nil))

	updated := validConfigYAML + "log:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	// A truncating write can surface an intermediate revision first.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case level := <-levels:
			if level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

//Personal.AI order the ending
