// Package config loads the service configuration: YAML file, then .env
// files via godotenv, then environment overrides. Env always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled bool   `yaml:"enabled"`
		Max     int    `yaml:"max"`
		Window  string `yaml:"window"`
	} `yaml:"rate_limit"`

	Federated struct {
		// StateSecret signs the state token of the delegate round trip.
		StateSecret string `yaml:"state_secret"`
		StateTTL    string `yaml:"state_ttl"`
	} `yaml:"federated"`

	Cleanup struct {
		Interval string `yaml:"interval"`
		Buffer   string `yaml:"buffer"`
	} `yaml:"cleanup"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the YAML file at path (optional: "" skips it), layers .env
// files on the process environment and applies env overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")     // base
	_ = godotenv.Load(".env.dev") // dev overrides

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "10m"
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 60
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "1m"
	}
	if c.Federated.StateTTL == "" {
		c.Federated.StateTTL = "10m"
	}
	if c.Cleanup.Interval == "" {
		c.Cleanup.Interval = "5m"
	}
	if c.Cleanup.Buffer == "" {
		c.Cleanup.Buffer = "1m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	if v, ok := getEnvStr("RATE_LIMIT_ENABLED"); ok {
		c.RateLimit.Enabled = v == "true" || v == "1"
	}
	if v, ok := getEnvInt("RATE_LIMIT_MAX"); ok {
		c.RateLimit.Max = v
	}
	if v, ok := getEnvStr("RATE_LIMIT_WINDOW"); ok {
		c.RateLimit.Window = v
	}

	if v, ok := getEnvStr("FEDERATED_STATE_SECRET"); ok {
		c.Federated.StateSecret = v
	}
	if v, ok := getEnvStr("FEDERATED_STATE_TTL"); ok {
		c.Federated.StateTTL = v
	}

	if v, ok := getEnvStr("CLEANUP_INTERVAL"); ok {
		c.Cleanup.Interval = v
	}
	if v, ok := getEnvStr("CLEANUP_BUFFER"); ok {
		c.Cleanup.Buffer = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn required for postgres")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr required for redis")
	}
	for name, v := range map[string]string{
		"federated.state_ttl":      c.Federated.StateTTL,
		"cleanup.interval":         c.Cleanup.Interval,
		"cleanup.buffer":           c.Cleanup.Buffer,
		"cache.memory.default_ttl": c.Cache.Memory.DefaultTTL,
		"rate_limit.window":        c.RateLimit.Window,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// MustDuration parses a duration already validated by Validate.
func MustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
