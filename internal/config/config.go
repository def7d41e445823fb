// Package config loads the YAML run configuration. Everything has a code
// default so a missing file is not an error; API keys stay in the
// environment and never appear in the file itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFilename is looked up in the working directory when no
	// explicit --config path is given.
	DefaultFilename = "philosophy.yaml"

	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendS3       = "s3"
)

// Config is the application configuration parsed from YAML.
type Config struct {
	Paths    PathsConfig       `yaml:"paths"`
	Defaults DefaultsConfig    `yaml:"defaults"`
	Store    StoreConfig       `yaml:"store"`
	KeyEnv   map[string]string `yaml:"api_key_env"`
}

// PathsConfig locates the fixtures and output directories.
type PathsConfig struct {
	ResponsesDir     string `yaml:"responses_dir"`
	PuzzleDir        string `yaml:"puzzle_dir"`
	SystemPromptPath string `yaml:"system_prompt"`
	DebugSSEDir      string `yaml:"debug_sse_dir"`
}

// DefaultsConfig holds per-run defaults that flags can override.
type DefaultsConfig struct {
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	Workers        int  `yaml:"workers"`
	Stream         bool `yaml:"stream"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			ResponsesDir:     "responses",
			PuzzleDir:        "puzzles",
			SystemPromptPath: "system_prompt.md",
			DebugSSEDir:      "debug",
		},
		Defaults: DefaultsConfig{
			TimeoutSeconds: 3600,
			Workers:        4,
			Stream:         true,
		},
		Store: StoreConfig{Backend: BackendFile},
	}
}

// Load reads YAML configuration from path and validates the result. A
// missing file at the default location yields [Default]; an explicit path
// that does not exist is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Defaults.TimeoutSeconds < 0 {
		return fmt.Errorf("defaults.timeout_seconds must not be negative, got %d", c.Defaults.TimeoutSeconds)
	}
	if c.Defaults.Workers < 0 {
		return fmt.Errorf("defaults.workers must not be negative, got %d", c.Defaults.Workers)
	}

	switch c.Store.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Paths.ResponsesDir) == "" {
			return fmt.Errorf("paths.responses_dir must be set for the file backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return fmt.Errorf("store.postgres.dsn must be set for the postgres backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Store.Redis.Addr) == "" {
			return fmt.Errorf("store.redis.addr must be set for the redis backend")
		}
	case BackendS3:
		if strings.TrimSpace(c.Store.S3.Bucket) == "" {
			return fmt.Errorf("store.s3.bucket must be set for the s3 backend")
		}
	default:
		return fmt.Errorf("store.backend %q must be one of %q, %q, %q or %q",
			c.Store.Backend, BackendFile, BackendPostgres, BackendRedis, BackendS3)
	}

	for provider, envName := range c.KeyEnv {
		if strings.TrimSpace(provider) == "" {
			return fmt.Errorf("api_key_env: provider name must not be empty")
		}
		if strings.TrimSpace(envName) == "" {
			return fmt.Errorf("api_key_env: env var name for provider %q must not be empty", provider)
		}
	}

	return nil
}

// Timeout returns the default request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Defaults.TimeoutSeconds) * time.Second
}

// APIKey resolves a provider's API key through the configured env var
// override. Empty when no override is configured or the variable is unset;
// providers then fall back to their own well-known variables.
func (c Config) APIKey(provider string) string {
	envName, ok := c.KeyEnv[provider]
	if !ok {
		return ""
	}
	return os.Getenv(envName)
}
