package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FORMFIELDS_STORE_URL.
const EnvPrefix = "FORMFIELDS"

// Store kinds.
const (
	StoreFS   = "fs"
	StoreHTTP = "http"
)

// Cache kinds.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Fields FieldsConfig `mapstructure:"fields"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Kind    string        `mapstructure:"kind"`
	Root    string        `mapstructure:"root"`
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Kind   string        `mapstructure:"kind"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis"`
	Badger BadgerConfig  `mapstructure:"badger"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

type FieldsConfig struct {
	GateKey string `mapstructure:"gateKey"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.kind", StoreFS)
	v.SetDefault("store.root", ".")
	v.SetDefault("store.url", "")
	v.SetDefault("store.token", "")
	v.SetDefault("store.timeout", 10*time.Second)
	v.SetDefault("cache.kind", CacheMemory)
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "formfields:attachment:")
	v.SetDefault("cache.badger.path", "")
	v.SetDefault("fields.gateKey", "deviceCommandCode")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file, then file (or formfields.yaml in the
// working directory when file is empty), and unmarshals the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("formfields")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the kinds and the settings each kind needs.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreFS:
		if c.Store.Root == "" {
			return errors.New("config: store.root is required for the fs store")
		}
	case StoreHTTP:
		if c.Store.URL == "" {
			return errors.New("config: store.url is required for the http store")
		}
	default:
		return fmt.Errorf("config: unknown store.kind %q", c.Store.Kind)
	}

	switch c.Cache.Kind {
	case CacheMemory, CacheBadger:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("config: cache.redis.addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}
