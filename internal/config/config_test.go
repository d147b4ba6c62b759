package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KOMPASS_DATABASE_DSN", "postgres://kompass@localhost/kompass")
	t.Setenv("KOMPASS_AUTH_SECRET", "secret")
	t.Setenv("KOMPASS_SECTION_NAME", "Karlsruhe")
	t.Setenv("KOMPASS_HTTP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres://kompass@localhost/kompass", cfg.DatabaseDSN)
	assert.Equal(t, "secret", cfg.AuthSecret)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, "Karlsruhe", cfg.Mail.Section)
	assert.Contains(t, cfg.Mail.EchoSubject, "{{.Section}}")
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"KOMPASS_DATABASE_DSN=postgres://file@localhost/kompass\n"+
			"KOMPASS_AUTH_SECRET=from-file\n"+
			"KOMPASS_MAIL_ECHO_SUBJECT=Echo {{.Section}}\n",
	), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("KOMPASS_DATABASE_DSN")
		os.Unsetenv("KOMPASS_AUTH_SECRET")
		os.Unsetenv("KOMPASS_MAIL_ECHO_SUBJECT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file@localhost/kompass", cfg.DatabaseDSN)
	assert.Equal(t, "from-file", cfg.AuthSecret)
	assert.Equal(t, "Echo {{.Section}}", cfg.Mail.EchoSubject)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("KOMPASS_DATABASE_DSN", "")
	t.Setenv("KOMPASS_AUTH_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_WithoutAuthSecret(t *testing.T) {
	t.Setenv("KOMPASS_DATABASE_DSN", "postgres://kompass@localhost/kompass")
	t.Setenv("KOMPASS_AUTH_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)

	err = cfg.RequireAuthSecret()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAuthSecret)
	assert.Contains(t, err.Error(), "KOMPASS_AUTH_SECRET")
}

func TestConfig_RequireAuthSecret(t *testing.T) {
	cfg := &Config{AuthSecret: "secret"}
	assert.NoError(t, cfg.RequireAuthSecret())
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("KOMPASS_DATABASE_DSN", "postgres://kompass@localhost/kompass")
	t.Setenv("KOMPASS_AUTH_SECRET", "secret")
	t.Setenv("KOMPASS_LOG_LEVEL", "verbose")

	_, err := Load("")
	assert.Error(t, err)
}
