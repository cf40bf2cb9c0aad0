// Package config loads the erdtower server configuration.
//
// Configuration comes from an optional YAML or TOML file with ERDTOWER_*
// environment variable overrides. A .env file in the working directory is
// loaded into the environment first. Secrets (Redis and MongoDB URLs) only
// come from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/matzehuels/erdtower/pkg/solver"
)

// Config holds all configuration for the erdtower server.
type Config struct {
	// HTTP server
	Addr           string        `yaml:"addr" toml:"addr" env:"ERDTOWER_ADDR" env-default:":8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" toml:"request_timeout" env:"ERDTOWER_REQUEST_TIMEOUT" env-default:"30s"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" toml:"max_body_bytes" env:"ERDTOWER_MAX_BODY_BYTES" env-default:"4194304"`
	LogLevel       string        `yaml:"log_level" toml:"log_level" env:"ERDTOWER_LOG_LEVEL" env-default:"info"`

	// Direction is the default layer direction for new diagrams.
	Direction string `yaml:"direction" toml:"direction" env:"ERDTOWER_DIRECTION" env-default:"RIGHT"`
	// Spacing for session layouts. Zero keeps the builder default.
	NodeSpacing  float64 `yaml:"node_spacing" toml:"node_spacing" env:"ERDTOWER_NODE_SPACING"`
	LayerSpacing float64 `yaml:"layer_spacing" toml:"layer_spacing" env:"ERDTOWER_LAYER_SPACING"`

	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Sessions SessionsConfig `yaml:"sessions" toml:"sessions"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	// Backend is one of none, file or redis.
	Backend  string `yaml:"backend" toml:"backend" env:"ERDTOWER_CACHE_BACKEND" env-default:"file"`
	Dir      string `yaml:"dir" toml:"dir" env:"ERDTOWER_CACHE_DIR"` // empty means the user cache dir
	RedisURL string `yaml:"-" toml:"-" env:"ERDTOWER_REDIS_URL"`
	Prefix   string `yaml:"prefix" toml:"prefix" env:"ERDTOWER_CACHE_PREFIX" env-default:"erdtower:"`
}

// SessionsConfig selects the editing session store.
type SessionsConfig struct {
	// Backend is one of memory, file, redis or mongo.
	Backend       string        `yaml:"backend" toml:"backend" env:"ERDTOWER_SESSION_BACKEND" env-default:"memory"`
	Dir           string        `yaml:"dir" toml:"dir" env:"ERDTOWER_SESSION_DIR"`
	TTL           time.Duration `yaml:"ttl" toml:"ttl" env:"ERDTOWER_SESSION_TTL" env-default:"24h"`
	MongoURI      string        `yaml:"-" toml:"-" env:"ERDTOWER_MONGO_URI"`
	MongoDatabase string        `yaml:"mongo_database" toml:"mongo_database" env:"ERDTOWER_MONGO_DATABASE" env-default:"erdtower"`
}

var (
	cacheBackends   = []string{"none", "file", "redis"}
	sessionBackends = []string{"memory", "file", "redis", "mongo"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// Load reads configuration from path (YAML or TOML by extension) with
// environment overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated values and backend requirements.
func (c *Config) Validate() error {
	if _, err := solver.ParseDirection(c.Direction); err != nil {
		return err
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level %q (want one of %v)", c.LogLevel, logLevels)
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("cache backend %q (want one of %v)", c.Cache.Backend, cacheBackends)
	}
	if !slices.Contains(sessionBackends, c.Sessions.Backend) {
		return fmt.Errorf("session backend %q (want one of %v)", c.Sessions.Backend, sessionBackends)
	}
	needRedis := c.Cache.Backend == "redis" || c.Sessions.Backend == "redis"
	if needRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("ERDTOWER_REDIS_URL is required for the redis backend")
	}
	if c.Sessions.Backend == "mongo" && c.Sessions.MongoURI == "" {
		return fmt.Errorf("ERDTOWER_MONGO_URI is required for the mongo session backend")
	}
	if c.NodeSpacing < 0 || c.LayerSpacing < 0 {
		return fmt.Errorf("node_spacing and layer_spacing must not be negative")
	}
	if c.RequestTimeout <= 0 || c.MaxBodyBytes <= 0 || c.Sessions.TTL <= 0 {
		return fmt.Errorf("request_timeout, max_body_bytes and sessions.ttl must be positive")
	}
	return nil
}
