package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_SESSION_STORE", "bogus")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, SessionStoreMemory, cfg.Imports.SessionStore)
	require.Equal(t, 1, cfg.Imports.ExecutorConcurrency)
	require.Equal(t, 2*time.Hour, cfg.Workspaces.IdleTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_SESSION_STORE", "Redis")
	t.Setenv("IMPORT_EXECUTOR_CONCURRENCY", "4")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("IMPORT_SESSION_RETENTION", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, SessionStoreRedis, cfg.Imports.SessionStore)
	require.Equal(t, 4, cfg.Imports.ExecutorConcurrency)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 24*time.Hour, cfg.Imports.SessionRetention)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "hr", SSLMode: "disable"}
	require.Equal(t, "postgres://u:p@db:5432/hr?sslmode=disable", d.DSN())
}
