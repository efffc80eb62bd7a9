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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "procore:\n  client_id: abc\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Procore.ClientID)
	assert.Equal(t, "file", cfg.Settings.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8080", cfg.Server.Address())
	assert.Equal(t, ".", cfg.Render.AssetsRoot)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_PROCORE_SECRET", "s3cret")
	path := writeConfig(t, "procore:\n  client_secret: ${TEST_PROCORE_SECRET}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Procore.ClientSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvClientID, "env-id")
	t.Setenv(EnvCompanyID, "456")
	path := writeConfig(t, "procore:\n  client_id: file-id\n  client_secret: file-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	creds := cfg.Procore.Credentials()
	assert.Equal(t, "env-id", creds.ClientID)
	assert.Equal(t, "file-secret", creds.ClientSecret)
	assert.Equal(t, "456", creds.DefaultCompanyID)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "settings:\n  backend: redis\n"},
		{name: "sqlite without path", content: "settings:\n  backend: sqlite\n"},
		{name: "postgres without dsn", content: "settings:\n  backend: postgres\n"},
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "bad node id", content: "server:\n  node_id: 5000\n"},
		{name: "bad log format", content: "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	path := writeConfig(t, "settings:\n  backend: sqlite\n  path: /tmp/x.db\n  encryption_key: k\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	opts := cfg.Settings.StoreOptions()
	assert.Equal(t, "sqlite", opts.Backend)
	assert.Equal(t, "/tmp/x.db", opts.Path)
	assert.Equal(t, "k", opts.EncryptionKey)
	assert.Equal(t, "procorepress", opts.Service)
}

func TestLoad_AdminSettings(t *testing.T) {
	path := writeConfig(t, "server:\n  admin_secret: from-file\n  admin_token_ttl: 15m\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Server.AdminSecret)
	assert.Equal(t, 15*time.Minute, cfg.Server.AdminTokenTTL)

	t.Setenv(EnvAdminSecret, "from-env")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.AdminSecret)
}

func TestDefault_AdminTokenTTL(t *testing.T) {
	assert.Equal(t, time.Hour, Default().Server.AdminTokenTTL)
	assert.Empty(t, Default().Server.AdminSecret)
}
