// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscout/litscout/internal/config"
	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/pkg/errutil"
)

// isolate points XDG lookups at a temp dir so a developer's own config
// never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(config.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, "https://localhost:5173/search", cfg.Navigation.MainView)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.yaml", `
api:
  base_url: https://api.example.com
  timeout: 3s
storage:
  backend: sqlite
  path: /tmp/ls.db
navigation:
  landing_view: https://example.com/
bridge:
  allowed_origins:
    - https://*.example.com
`)

	cfg, err := config.Load(config.LoadOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ls.db", cfg.Storage.Path)
	assert.Equal(t, "https://example.com/", cfg.Navigation.LandingView)
	assert.Equal(t, config.DefaultLoginView, cfg.Navigation.LoginView)
	assert.Equal(t, []string{"https://*.example.com"}, cfg.Bridge.AllowedOrigins)
}

func TestLoad_DefaultFileFromXDG(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config", "litscout"), 0o700))
	writeFile(t, filepath.Join(dir, "config", "litscout"), "config.yaml", "log:\n  format: json\n")

	cfg, err := config.Load(config.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "config.yaml", "api:\n  base_url: https://file.example.com\n")
	t.Setenv("LITSCOUT_API_BASE_URL", "https://env.example.com")
	t.Setenv("LITSCOUT_API_TIMEOUT", "7s")
	t.Setenv("LITSCOUT_STORAGE_REDIS_DB", "3")
	t.Setenv("LITSCOUT_BRIDGE_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LITSCOUT_UNKNOWN_KEY", "ignored")

	cfg, err := config.Load(config.LoadOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.API.Timeout.Std())
	assert.Equal(t, 3, cfg.Storage.Redis.DB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Bridge.AllowedOrigins)
}

func TestLoad_ChangedFlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("LITSCOUT_LOG_LEVEL", "warn")
	t.Setenv("LITSCOUT_LOG_FORMAT", "json")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.String("log-format", "text", "")
	fs.String("api-url", config.DefaultBaseURL, "")
	fs.Bool("json", false, "unrelated flag")
	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--json"}))

	cfg, err := config.Load(config.LoadOptions{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "changed flag beats env")
	assert.Equal(t, "json", cfg.Log.Format, "unchanged flag default does not beat env")
	assert.Equal(t, config.DefaultBaseURL, cfg.API.BaseURL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := writeFile(t, dir, "test.env", "LITSCOUT_METRICS_ADDR=127.0.0.1:9999\n")
	t.Cleanup(func() { _ = os.Unsetenv("LITSCOUT_METRICS_ADDR") })

	cfg, err := config.Load(config.LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Metrics.Addr)
}

func TestLoad_MissingDotEnvFile(t *testing.T) {
	isolate(t)
	_, err := config.Load(config.LoadOptions{EnvFile: "/nonexistent/.env"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_DOTENV_FAILED")
}

func TestLoad_SchemaRejectsUnknownAndMistyped(t *testing.T) {
	dir := isolate(t)
	tests := map[string]string{
		"unknown key":       "api:\n  base_ur1: https://x\n",
		"bad backend":       "storage:\n  backend: postgres\n",
		"bad duration":      "api:\n  timeout: soon\n",
		"origins not array": "bridge:\n  allowed_origins: https://x\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.yaml", content)
			_, err := config.Load(config.LoadOptions{File: path})
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_INVALID")
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := config.Load(config.LoadOptions{File: "/nonexistent/config.yaml"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty base url", func(c *config.Config) { c.API.BaseURL = "" }},
		{"relative base url", func(c *config.Config) { c.API.BaseURL = "localhost" }},
		{"zero timeout", func(c *config.Config) { c.API.Timeout = 0 }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"bad bridge addr", func(c *config.Config) { c.Bridge.Addr = "nope" }},
		{"empty origin", func(c *config.Config) { c.Bridge.AllowedOrigins = []string{""} }},
		{"missing main view", func(c *config.Config) { c.Navigation.MainView = "" }},
		{"redis without addr", func(c *config.Config) {
			c.Storage.Backend = config.BackendRedis
			c.Storage.Redis.Addr = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}

	assert.NoError(t, config.Default().Validate())
}

func TestStoragePath(t *testing.T) {
	dir := isolate(t)

	cfg := config.Default()
	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state", "litscout", "session.yaml"), path)

	cfg.Storage.Backend = config.BackendSQLite
	path, err = cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "litscout", "litscout.db"), path)

	cfg.Storage.Backend = config.BackendMemory
	path, err = cfg.StoragePath()
	require.NoError(t, err)
	assert.Empty(t, path)

	cfg.Storage.Path = "/explicit"
	path, err = cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, "/explicit", path)
}

func TestNavigationRoutes(t *testing.T) {
	routes := config.Default().Navigation.Routes()
	assert.Equal(t, config.DefaultLoginView, routes.URL(events.LoginView))
	assert.Equal(t, "/", routes.URL(events.LandingView))
}

func TestGenerateSchema(t *testing.T) {
	raw, err := config.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"api", "storage", "navigation", "log", "bridge", "metrics"} {
		assert.Contains(t, props, key)
	}
}

func TestValidateSchema_EmptyDocument(t *testing.T) {
	assert.NoError(t, config.ValidateSchema(nil))
	assert.NoError(t, config.ValidateSchema([]byte("# only a comment\n")))
}
