package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProductionConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env
	for _, key := range []string{"PORT", "DATABASE_URL", "SEQUENCE_BACKEND", "SEQUENCE_NAME", "LOG_OUTPUT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 5005, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5005", cfg.Server.Address())
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, SequenceBackendPostgres, cfg.Sequence.Backend)
	assert.Equal(t, "productId", cfg.Sequence.Name)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadProductionConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8088")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/crud?sslmode=disable")
	t.Setenv("SEQUENCE_BACKEND", "redis")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@db:5432/crud?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, SequenceBackendRedis, cfg.Sequence.Backend)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\n\nCRUD_TEST_A=plain\nCRUD_TEST_B=\"quoted value\"\nCRUD_TEST_C='single'\nnot-a-pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CRUD_TEST_A", "")
	t.Setenv("CRUD_TEST_B", "")
	t.Setenv("CRUD_TEST_C", "preset")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "plain", os.Getenv("CRUD_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("CRUD_TEST_B"))
	assert.Equal(t, "preset", os.Getenv("CRUD_TEST_C"), "existing env wins over the file")
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}

func TestValidateProductionConfig(t *testing.T) {
	valid := func() *ProductionConfig {
		return &ProductionConfig{
			Server: ServerConfig{
				Port: 5005, ReadTimeout: time.Second, WriteTimeout: time.Second,
				IdleTimeout: time.Second, BodyLimit: 1024,
			},
			Database: DatabaseConfig{MaxOpenConns: 1},
			Sequence: SequenceConfig{Backend: SequenceBackendPostgres, Name: "productId"},
			Logging:  LoggingConfig{Level: "info", Output: "stdout"},
			Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*ProductionConfig)
		errContains string
	}{
		{name: "valid", mutate: func(*ProductionConfig) {}},
		{name: "missing database url is allowed", mutate: func(c *ProductionConfig) { c.Database.URL = "" }},
		{name: "bad port", mutate: func(c *ProductionConfig) { c.Server.Port = 70000 }, errContains: "PORT"},
		{name: "zero read timeout", mutate: func(c *ProductionConfig) { c.Server.ReadTimeout = 0 }, errContains: "SERVER_READ_TIMEOUT"},
		{name: "unknown backend", mutate: func(c *ProductionConfig) { c.Sequence.Backend = "etcd" }, errContains: "SEQUENCE_BACKEND"},
		{name: "empty sequence name", mutate: func(c *ProductionConfig) { c.Sequence.Name = "" }, errContains: "SEQUENCE_NAME"},
		{name: "redis without url", mutate: func(c *ProductionConfig) {
			c.Sequence.Backend = SequenceBackendRedis
			c.Sequence.RedisURL = ""
		}, errContains: "REDIS_URL"},
		{name: "bad log level", mutate: func(c *ProductionConfig) { c.Logging.Level = "trace" }, errContains: "LOG_LEVEL"},
		{name: "file output without path", mutate: func(c *ProductionConfig) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, errContains: "LOG_FILE_PATH"},
		{name: "metrics path", mutate: func(c *ProductionConfig) { c.Metrics.Path = "metrics" }, errContains: "METRICS_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateProductionConfig(cfg)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
