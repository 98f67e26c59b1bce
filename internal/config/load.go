// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/litscout/litscout/internal/xdg"
)

// EnvPrefix prefixes every environment override, e.g. LITSCOUT_API_BASE_URL.
const EnvPrefix = "LITSCOUT_"

// FlagKeys maps command-line flag names to config keys. Flags not listed
// here are ignored by Load.
var FlagKeys = map[string]string{
	"api-url":         "api.base_url",
	"api-timeout":     "api.timeout",
	"storage":         "storage.backend",
	"storage-path":    "storage.path",
	"redis-addr":      "storage.redis.addr",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"addr":            "bridge.addr",
	"allowed-origins": "bridge.allowed_origins",
	"metrics-addr":    "metrics.addr",
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an explicit config path. When empty the XDG config file is
	// used if it exists.
	File string
	// EnvFile is a dotenv file loaded into the process environment before
	// reading LITSCOUT_* variables. When empty ".env" is tried.
	EnvFile string
	// Flags supplies flag overrides. Only changed flags override other
	// layers.
	Flags *pflag.FlagSet
}

// Load builds the configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	known := knownKeys()

	path, err := configPath(opts.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(name string) string {
		return known[strings.ToLower(strings.TrimPrefix(name, EnvPrefix))]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// knownKeys maps the env-style spelling of every config key ("api_base_url")
// to its dotted key ("api.base_url").
func knownKeys() map[string]string {
	out := make(map[string]string)
	collectKeys(reflect.TypeOf(Config{}), "", out)
	return out
}

func collectKeys(t reflect.Type, prefix string, out map[string]string) {
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		key := prefix + tag
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, key+".", out)
			continue
		}
		out[strings.ReplaceAll(key, ".", "_")] = key
	}
}

func configPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", nil //nolint:nilerr // no HOME means no default file
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_READ_FAILED").With("path", def).Wrap(err)
	}
	return def, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil //nolint:nilerr // optional file
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return oops.Code("CONFIG_DOTENV_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+":"+fe.Tag())
			}
			return oops.Code("CONFIG_INVALID").With("fields", fields).Wrap(err)
		}
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("fields", []string{"Config.Storage.Redis.Addr:required"}).
			Errorf("storage.redis.addr is required for the redis backend")
	}
	return nil
}
