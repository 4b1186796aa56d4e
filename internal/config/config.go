// Package config loads reschema settings from YAML files and the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/reschema/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override ("RESCHEMA_HTTP_ADDR").
const EnvPrefix = "RESCHEMA_"

// Persistence drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings of the reschema command.
type Config struct {
	// Namespace is the dotted path schemas are bound to.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`

	// StrictNames rejects schema name collisions instead of warning.
	StrictNames bool `mapstructure:"strict_names" yaml:"strict_names"`

	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Persistence PersistenceConfig `mapstructure:"persistence" yaml:"persistence"`
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Catalog     CatalogConfig     `mapstructure:"catalog" yaml:"catalog"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// PersistenceConfig selects and tunes the snapshot store.
type PersistenceConfig struct {
	// Driver is one of memory, file or redis.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Dir is the session directory of the file driver.
	Dir string `mapstructure:"dir" yaml:"dir"`

	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`

	// Compress stores trees snappy-compressed.
	Compress bool `mapstructure:"compress" yaml:"compress"`

	// EncryptionKey is a base64 AES-256 key; empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`

	// FallbackKeys are base64 keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`

	// MaskKeys are patterns of tree keys masked before persisting.
	MaskKeys []string `mapstructure:"mask_keys" yaml:"mask_keys"`

	// LockTTL bounds distributed session locks.
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// RedisConfig holds the redis driver settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	MetricsPath  string        `mapstructure:"metrics_path" yaml:"metrics_path"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// RequestTimeout bounds how long a waiting dispatch blocks.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// CatalogConfig tunes the demo schemas.
type CatalogConfig struct {
	MovieDelay time.Duration `mapstructure:"movie_delay" yaml:"movie_delay"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Namespace: "schemas",
		Log:       LogConfig{Level: "info"},
		Persistence: PersistenceConfig{
			Driver:  DriverMemory,
			Dir:     ".reschema/sessions",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "reschema:session:"},
			LockTTL: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			MetricsPath:    "/metrics",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Catalog: CatalogConfig{MovieDelay: time.Second},
	}
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, err
		}
	}

	if err := decode(fromEnv(os.Environ()), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges raw onto cfg. Durations accept "1m30s" strings.
func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// fromEnv nests RESCHEMA_ variables along the mapstructure tags of Config:
// RESCHEMA_PERSISTENCE_REDIS_ADDR sets persistence.redis.addr.
func fromEnv(environ []string) map[string]any {
	out := map[string]any{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path := resolveEnvKey(reflect.TypeOf(Config{}), strings.ToLower(strings.TrimPrefix(key, EnvPrefix)))
		if path == nil {
			continue
		}
		node := out
		for _, seg := range path[:len(path)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[seg] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}
	return out
}

// resolveEnvKey matches an underscore-joined key against struct tags, which
// may contain underscores themselves.
func resolveEnvKey(t reflect.Type, key string) []string {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		if key == tag && f.Type.Kind() != reflect.Struct {
			return []string{tag}
		}
		if f.Type.Kind() == reflect.Struct && strings.HasPrefix(key, tag+"_") {
			if rest := resolveEnvKey(f.Type, strings.TrimPrefix(key, tag+"_")); rest != nil {
				return append([]string{tag}, rest...)
			}
		}
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	switch c.Persistence.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Persistence.Dir == "" {
			errs = append(errs, errors.New("persistence.dir is required by the file driver"))
		}
	case DriverRedis:
		if c.Persistence.Redis.Addr == "" {
			errs = append(errs, errors.New("persistence.redis.addr is required by the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown persistence driver %q", c.Persistence.Driver))
	}

	if c.Persistence.EncryptionKey != "" {
		if _, err := c.Persistence.Keys(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.HTTP.MetricsPath != "" && !strings.HasPrefix(c.HTTP.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("http.metrics_path %q must start with /", c.HTTP.MetricsPath))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Keys decodes the active encryption key followed by the fallback keys.
func (p PersistenceConfig) Keys() ([][]byte, error) {
	encoded := append([]string{p.EncryptionKey}, p.FallbackKeys...)
	keys := make([][]byte, 0, len(encoded))
	for i, s := range encoded {
		key, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("encryption key %d is not valid base64: %w", i, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key %d must decode to 32 bytes, got %d", i, len(key))
		}
		keys = append(keys, key)
	}
	return keys, nil
}
