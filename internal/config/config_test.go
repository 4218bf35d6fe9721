package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vizitka.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dedent.Dedent(body)), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBotToken, EnvDatabase, EnvLogLevel, EnvMetricsAddr} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.ErrorIs(t, cfg.RequireToken(), ErrMissingToken)
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
		telegram:
		  token: "123:abc"
		  poll_timeout: 45s
		database:
		  path: /var/lib/vizitka/users.db
		session:
		  ttl: 1h
		  sweep_interval: 5m
		log:
		  level: debug
		  format: json
		  file: /var/log/vizitka.log
		  compress: true
		metrics:
		  addr: ":9090"
	`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 45*time.Second, cfg.Telegram.PollTimeout)
	assert.Equal(t, 10*time.Second, cfg.Telegram.RequestTimeout, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/vizitka/users.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.NoError(t, cfg.RequireToken())
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `
		database:
		  file: users.db
	`))
	assert.ErrorContains(t, err, "field file not found")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBotToken, "999:env")
	t.Setenv(EnvDatabase, "env.db")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:2112")

	cfg, err := Load(writeConfig(t, `
		telegram:
		  token: "123:file"
		database:
		  path: file.db
	`))
	require.NoError(t, err)

	assert.Equal(t, "999:env", cfg.Telegram.Token)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:2112", cfg.Metrics.Addr)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "Config.Log.Level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "Config.Log.Format"},
		{"empty db", func(c *Config) { c.Database.Path = "" }, "Config.Database.Path"},
		{"negative ttl", func(c *Config) { c.Session.TTL = -time.Second }, "Config.Session.TTL"},
		{"zero request timeout", func(c *Config) { c.Telegram.RequestTimeout = 0 }, "Config.Telegram.RequestTimeout"},
		{"bad api url", func(c *Config) { c.Telegram.APIURL = "not a url" }, "Config.Telegram.APIURL"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "nope" }, "Config.Metrics.Addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "123:secret"

	r := cfg.Redacted()
	assert.Equal(t, "<redacted>", r.Telegram.Token)
	assert.Equal(t, "123:secret", cfg.Telegram.Token, "original untouched")
	assert.Empty(t, Default().Redacted().Telegram.Token)
}
