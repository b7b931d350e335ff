package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "runledger.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Events.Log)
	assert.False(t, cfg.Events.Redis.Enabled())
	assert.False(t, cfg.Commit.StrictAmounts)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "ledger.yaml", `
database:
  path: /var/lib/runledger/ledger.db
identity: orchestrator.testnet
log:
  level: debug
  format: json
verifiers:
  - id: zk.testnet
    endpoint: http://localhost:8545/verify
    timeout: 5s
dispatch:
  rate: 2.5
  burst: 4
events:
  redis:
    addr: localhost:6379
    max_len: 1000
commit:
  strict_amounts: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/runledger/ledger.db", cfg.Database.Target())
	assert.Equal(t, "orchestrator.testnet", cfg.Identity)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.Len(t, cfg.Verifiers, 1)
	assert.Equal(t, "zk.testnet", cfg.Verifiers[0].ID)
	assert.Equal(t, "http://localhost:8545/verify", cfg.Verifiers[0].Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Verifiers[0].Timeout)

	assert.Equal(t, 2.5, cfg.Dispatch.Rate)
	assert.Equal(t, 4, cfg.Dispatch.Burst)
	assert.True(t, cfg.Events.Redis.Enabled())
	assert.Equal(t, "runledger:events", cfg.Events.Redis.Stream)
	assert.Equal(t, int64(1000), cfg.Events.Redis.MaxLen)
	assert.True(t, cfg.Commit.StrictAmounts)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Database, cfg.Database)
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "runledger"), 0o700))
	writeConfig(t, filepath.Join(xdg, "runledger"), "config.yaml", `
identity: user.testnet
log:
  level: warn
`)

	project := t.TempDir()
	t.Chdir(project)
	writeConfig(t, project, ProjectConfigName, `
identity: project.testnet
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "project.testnet", cfg.Identity)
	assert.Equal(t, "warn", cfg.Log.Level, "user settings survive the merge")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("RUNLEDGER_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("RUNLEDGER_IDENTITY", "env.testnet")
	t.Setenv("RUNLEDGER_COMMIT_STRICT_AMOUNTS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "env.testnet", cfg.Identity)
	assert.True(t, cfg.Commit.StrictAmounts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative rate", func(c *Config) { c.Dispatch.Rate = -1 }},
		{"verifier without id", func(c *Config) {
			c.Verifiers = []VerifierConfig{{Endpoint: "http://v"}}
		}},
		{"verifier without endpoint", func(c *Config) {
			c.Verifiers = []VerifierConfig{{ID: "v"}}
		}},
		{"duplicate verifier", func(c *Config) {
			c.Verifiers = []VerifierConfig{{ID: "v", Endpoint: "http://a"}, {ID: "v", Endpoint: "http://b"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseTarget_Postgres(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Path: "ignored.db", DSN: "postgres://localhost/ledger"}
	assert.Equal(t, "postgres://localhost/ledger", d.Target())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestUserConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "runledger"), UserConfigDir())
}
