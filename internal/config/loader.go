package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for every setting:
// database.postgres.host is read from FOIA_DATABASE_POSTGRES_HOST.
const EnvPrefix = "FOIA"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// envKeys are bound explicitly so LoadFromEnv sees them without a file.
var envKeys = []string{
	"server.http.host", "server.http.port", "server.http.cors_origins",
	"server.grpc.enabled", "server.grpc.host", "server.grpc.port",
	"database.postgres.driver", "database.postgres.host", "database.postgres.port",
	"database.postgres.database", "database.postgres.username", "database.postgres.password",
	"database.postgres.ssl_mode", "database.postgres.migrations_path", "database.postgres.auto_migrate",
	"redis.mode", "redis.addr", "redis.username", "redis.password", "redis.db", "redis.key_prefix",
	"redis.cache_ttl", "redis.scan_lock_ttl",
	"kafka.brokers", "kafka.group_id", "kafka.sasl_enabled", "kafka.sasl_mechanism",
	"kafka.sasl_username", "kafka.sasl_password", "kafka.tls_enabled", "kafka.auto_create_topics",
	"storage.minio.endpoint", "storage.minio.access_key_id", "storage.minio.secret_access_key",
	"storage.minio.use_ssl", "storage.minio.bucket", "storage.minio.region",
	"log.level", "log.format",
	"metrics.enabled", "metrics.listen", "metrics.namespace",
	"tracker.store", "tracker.scan_interval", "tracker.lock_enabled", "tracker.timezone",
}

// current holds the most recently loaded Config.
var current atomic.Pointer[Config]

// Get returns the most recently loaded Config, or nil before the first Load.
func Get() *Config {
	return current.Load()
}

type loadOptions struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
	envPrefix   string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads exactly this file.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths looks for config.yaml in each directory, in order.
func WithSearchPaths(paths ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = append(o.searchPaths, paths...) }
}

// WithOverrides sets keys with the highest precedence, above env and file.
func WithOverrides(values map[string]interface{}) LoadOption {
	return func(o *loadOptions) { o.overrides = values }
}

func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the configured file (if any), merges FOIA_* environment
// variables and overrides, applies defaults and validates.  The result also
// becomes the value returned by Get.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper(o.envPrefix)
	if err := readFile(v, o); err != nil {
		return nil, err
	}
	for key, val := range o.overrides {
		v.Set(key, val)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

func readFile(v *viper.Viper, o *loadOptions) error {
	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
	default:
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// LoadFromFile is Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config from FOIA_* variables alone.
func LoadFromEnv() (*Config, error) {
	return Load()
}

// MustLoad panics on any load error.  Only main() should call it.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Watch re-reads path whenever it changes on disk and hands every valid
// result to onChange.  Invalid revisions go to onError and leave the previous
// Config in place.  Callers apply only the settings that are safe to change
// at runtime.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper(EnvPrefix)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		current.Store(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

//Personal.AI order the ending
