// Package config loads application settings for the molforge binary.
//
// Settings come, in increasing priority, from built-in defaults, a TOML
// file and MOLFORGE_* environment variables. Nested keys map to
// environment variables by upper-casing and replacing dots, so
// cache.redis_addr is read from MOLFORGE_CACHE_REDIS_ADDR.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "MOLFORGE"

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheNone   = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config is the full application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Build  BuildConfig  `mapstructure:"build"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	BadgerDir     string        `mapstructure:"badger_dir"`
	// KeyPrefix scopes every cache key, e.g. per deployment on a shared Redis.
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	MongoURI string `mapstructure:"mongo_uri"`
	Database string `mapstructure:"database"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// MaxBodyBytes limits uploaded building blocks per request.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type BuildConfig struct {
	Parallelism int    `mapstructure:"parallelism"`
	Seed        uint64 `mapstructure:"seed"`
}

// DefaultPath returns ~/.config/molforge/config.toml, or the OS equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "molforge", "config.toml")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key; Unmarshal only consults the environment
// for keys viper knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.badger_dir", "")
	v.SetDefault("cache.key_prefix", "")
	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.database", "molforge")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("build.parallelism", 1)
	v.SetDefault("build.seed", 0)
}

// Load reads the file at path. An empty path reads [DefaultPath] when it
// exists and otherwise uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %q: %w", path, err)
			}
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheBadger, CacheNone:
	default:
		return fmt.Errorf("cache.backend %q must be file, redis, badger or none", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.Store.MongoURI == "" || c.Store.Database == "" {
			return fmt.Errorf("store.mongo_uri and store.database are required for the mongo backend")
		}
	default:
		return fmt.Errorf("store.backend %q must be memory or mongo", c.Store.Backend)
	}
	if c.Build.Parallelism < 1 {
		return fmt.Errorf("build.parallelism must be at least 1, got %d", c.Build.Parallelism)
	}
	return nil
}

// Watch calls onChange with the reloaded configuration whenever the file
// at path changes. Reloads that fail validation are passed to onError and
// otherwise ignored.
func Watch(path string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(path)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
