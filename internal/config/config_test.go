package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "sha256", cfg.Credential.Scheme)
	require.Equal(t, "notemap.db.session", cfg.SessionFile())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[storage]
path = "/tmp/notes/app.db"
busy_timeout_ms = 2500

[credential]
scheme = "argon2id"

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/notes/app.db", cfg.Storage.Path)
	require.Equal(t, 2500, cfg.Storage.BusyTimeoutMS)
	require.Equal(t, "argon2id", cfg.Credential.Scheme)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "/tmp/notes/app.db.session", cfg.SessionFile())
}

func TestLoadRejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[credential]
scheme = "md5"
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[logging]
level = "chatty"
`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSessionPathOverride(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[storage]
session_path = "/tmp/elsewhere/session.json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/elsewhere/session.json", cfg.SessionFile())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
