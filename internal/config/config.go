// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

// Package config loads LitScout settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"path/filepath"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/litscout/litscout/internal/events"
	"github.com/litscout/litscout/internal/xdg"
)

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full LitScout configuration.
type Config struct {
	API        APIConfig        `koanf:"api" json:"api,omitempty"`
	Storage    StorageConfig    `koanf:"storage" json:"storage,omitempty"`
	Navigation NavigationConfig `koanf:"navigation" json:"navigation,omitempty"`
	Log        LogConfig        `koanf:"log" json:"log,omitempty"`
	Bridge     BridgeConfig     `koanf:"bridge" json:"bridge,omitempty"`
	Metrics    MetricsConfig    `koanf:"metrics" json:"metrics,omitempty"`
}

// APIConfig points at the remote auth API.
type APIConfig struct {
	BaseURL string   `koanf:"base_url" json:"base_url,omitempty" validate:"required,url" jsonschema:"description=Base URL of the remote API"`
	Timeout Duration `koanf:"timeout" json:"timeout,omitempty" validate:"gt=0"`
}

// StorageConfig selects where session tokens are persisted.
type StorageConfig struct {
	Backend string      `koanf:"backend" json:"backend,omitempty" validate:"oneof=memory file sqlite redis" jsonschema:"enum=memory,enum=file,enum=sqlite,enum=redis"`
	Path    string      `koanf:"path" json:"path,omitempty" jsonschema:"description=File or database path; defaults under the XDG state or data directory"`
	Redis   RedisConfig `koanf:"redis" json:"redis,omitempty"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr   string `koanf:"addr" json:"addr,omitempty" validate:"omitempty,hostname_port"`
	DB     int    `koanf:"db" json:"db,omitempty" validate:"gte=0" jsonschema:"minimum=0"`
	Prefix string `koanf:"prefix" json:"prefix,omitempty"`

	// ConnectRetries bounds the retries of the initial connection.
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries,omitempty" validate:"lte=20" jsonschema:"maximum=20"`
}

// NavigationConfig maps navigation destinations to URLs.
type NavigationConfig struct {
	MainView    string `koanf:"main_view" json:"main_view,omitempty" validate:"required"`
	LoginView   string `koanf:"login_view" json:"login_view,omitempty" validate:"required"`
	LandingView string `koanf:"landing_view" json:"landing_view,omitempty" validate:"required"`
}

// Routes returns the navigation table.
func (n NavigationConfig) Routes() events.Routes {
	return events.Routes{
		events.MainView:    n.MainView,
		events.LoginView:   n.LoginView,
		events.LandingView: n.LandingView,
	}
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" validate:"oneof=json text" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// BridgeConfig configures the local HTTP bridge.
type BridgeConfig struct {
	Addr           string   `koanf:"addr" json:"addr,omitempty" validate:"required,hostname_port"`
	AllowedOrigins []string `koanf:"allowed_origins" json:"allowed_origins,omitempty" validate:"dive,required" jsonschema:"description=Glob patterns matched against the Origin header"`
}

// MetricsConfig configures the metrics and health endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" validate:"omitempty,hostname_port" jsonschema:"description=Listen address; empty disables the endpoint"`
}

// Default values.
const (
	DefaultBaseURL      = "http://localhost:8000"
	DefaultTimeout      = 15 * time.Second
	DefaultMainView     = "https://localhost:5173/search"
	DefaultLoginView    = "https://localhost:5173/login"
	DefaultLandingView  = "/"
	DefaultBridgeAddr   = "127.0.0.1:8787"
	DefaultMetricsAddr  = "127.0.0.1:9187"
	DefaultRedisPrefix  = "litscout:"
	DefaultRedisRetries = 3
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: Duration(DefaultTimeout),
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379", Prefix: DefaultRedisPrefix, ConnectRetries: DefaultRedisRetries},
		},
		Navigation: NavigationConfig{
			MainView:    DefaultMainView,
			LoginView:   DefaultLoginView,
			LandingView: DefaultLandingView,
		},
		Log: LogConfig{Format: "text", Level: "info"},
		Bridge: BridgeConfig{
			Addr:           DefaultBridgeAddr,
			AllowedOrigins: []string{"https://localhost:5173", "http://localhost:*"},
		},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

// StoragePath returns Storage.Path, or the backend's default location when
// it is empty. Backends without a path return "".
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	switch c.Storage.Backend {
	case BackendFile:
		dir, err := xdg.StateDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "session.yaml"), nil
	case BackendSQLite:
		dir, err := xdg.DataDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "litscout.db"), nil
	default:
		return "", nil
	}
}

// Duration is a time.Duration written as a Go duration string ("15s").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// JSONSchema describes Duration as a duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration string, e.g. 15s",
	}
}
