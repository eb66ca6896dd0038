// Package config loads runtime settings: built-in defaults, then an optional
// YAML file, then ELEMENTX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var backends = []string{BackendMemory, BackendFile, BackendRedis, BackendSQLite}

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	Addr           string        `yaml:"addr" env:"ELEMENTX_ADDR"`
	LogLevel       string        `yaml:"log_level" env:"ELEMENTX_LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" env:"ELEMENTX_LOG_FORMAT"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"ELEMENTX_MAX_UPLOAD_BYTES"`
	MaxInputSize   int           `yaml:"max_input_size" env:"ELEMENTX_MAX_INPUT_SIZE"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace" env:"ELEMENTX_SHUTDOWN_GRACE"`

	Store StoreConfig `yaml:"store" envPrefix:"ELEMENTX_STORE_"`
	Redis RedisConfig `yaml:"redis" envPrefix:"ELEMENTX_REDIS_"`
	Auth  AuthConfig  `yaml:"auth" envPrefix:"ELEMENTX_AUTH_"`
}

// StoreConfig selects where users, samples and measurements are kept.
type StoreConfig struct {
	Backend    string `yaml:"backend" env:"BACKEND"`
	DataDir    string `yaml:"data_dir" env:"DATA_DIR"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// RedisConfig is used when Store.Backend is "redis".
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" env:"PREFIX"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8000",
		LogLevel:       "info",
		LogFormat:      "text",
		MaxUploadBytes: 10 << 20,
		MaxInputSize:   4096,
		ShutdownGrace:  10 * time.Second,
		Store: StoreConfig{
			Backend:    BackendMemory,
			DataDir:    ".elementx",
			SQLitePath: filepath.Join(".elementx", "elementx.db"),
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "elementx:",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
	}
}

// Load builds the configuration. An empty path skips the file layer;
// a named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, cfg.Validate()
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("%w: store backend %q (want one of %s)", ErrInvalidConfig, c.Store.Backend, strings.Join(backends, ", "))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("%w: max_input_size must be positive", ErrInvalidConfig)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", ErrInvalidConfig)
	}
	if c.Store.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required for the redis backend", ErrInvalidConfig)
	}
	return nil
}

// ValidateServer additionally requires what serving accounts needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("%w: ELEMENTX_AUTH_JWT_SECRET (auth.jwt_secret) is required", ErrInvalidConfig)
	}
	return nil
}
