// Package config loads rankc settings from an optional YAML file, a .env
// file and RANKC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the settings shared by every rankc command
type Config struct {
	Backend string `koanf:"backend"`

	SQLitePath   string `koanf:"sqlite_path"`
	SQLiteDriver string `koanf:"sqlite_driver"`

	PostgresDSN    string `koanf:"pg_dsn"`
	PostgresSchema string `koanf:"pg_schema"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Parallelism bounds concurrent schema compiles; 0 compiles one at a time
	Parallelism int `koanf:"parallelism"`
}

const (
	DefaultBackend        = "sqlite"
	DefaultSQLitePath     = "rankc.db"
	DefaultSQLiteDriver   = "sqlite"
	DefaultPostgresSchema = "rankc"
	DefaultRedisAddr      = "localhost:6379"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"

	EnvPrefix = "RANKC_"
)

var (
	ErrUnknownBackend      = errors.New("backend must be sqlite, postgres or redis")
	ErrUnknownSQLiteDriver = errors.New("sqlite_driver must be sqlite or sqlite3")
	ErrMissingPostgresDSN  = errors.New("pg_dsn is required for the postgres backend")
	ErrUnknownLogFormat    = errors.New("log_format must be text or json")
	ErrNegativeParallelism = errors.New("parallelism must not be negative")
)

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Backend:        DefaultBackend,
		SQLitePath:     DefaultSQLitePath,
		SQLiteDriver:   DefaultSQLiteDriver,
		PostgresSchema: DefaultPostgresSchema,
		RedisAddr:      DefaultRedisAddr,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
	}
}

// Load reads the configuration like Read and validates it. The returned
// slice holds every error; a file that cannot be read is reported alone.
func Load(configFilePath string) (*Config, []error) {
	cfg, errs := Read(configFilePath)
	if cfg == nil {
		return nil, errs
	}
	return cfg, append(errs, cfg.Validate()...)
}

// Read reads configFilePath when it is not empty, then a .env file in the
// working directory when one exists, then the environment, without
// validating the result. Callers that apply further overrides validate
// afterwards.
func Read(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, []error{fmt.Errorf("failed to load .env: %w", err)}
	}

	var loadErrs []error
	redisDB, err := envIntOrKoanf("REDIS_DB", k, "redis_db", 0)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	parallelism, err := envIntOrKoanf("PARALLELISM", k, "parallelism", 0)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		Backend:        envOrKoanf("BACKEND", k, "backend", DefaultBackend),
		SQLitePath:     envOrKoanf("SQLITE_PATH", k, "sqlite_path", DefaultSQLitePath),
		SQLiteDriver:   envOrKoanf("SQLITE_DRIVER", k, "sqlite_driver", DefaultSQLiteDriver),
		PostgresDSN:    envOrKoanf("PG_DSN", k, "pg_dsn", ""),
		PostgresSchema: envOrKoanf("PG_SCHEMA", k, "pg_schema", DefaultPostgresSchema),
		RedisAddr:      envOrKoanf("REDIS_ADDR", k, "redis_addr", DefaultRedisAddr),
		RedisPassword:  envOrKoanf("REDIS_PASSWORD", k, "redis_password", ""),
		RedisDB:        redisDB,
		LogLevel:       envOrKoanf("LOG_LEVEL", k, "log_level", DefaultLogLevel),
		LogFormat:      envOrKoanf("LOG_FORMAT", k, "log_format", DefaultLogFormat),
		Parallelism:    parallelism,
	}

	return cfg, loadErrs
}

// envOrKoanf returns RANKC_<name>, the file value or def, whichever is set first
func envOrKoanf(name string, k *koanf.Koanf, key, def string) string {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		return val
	}
	if val := k.String(key); val != "" {
		return val
	}
	return def
}

func envIntOrKoanf(name string, k *koanf.Koanf, key string, def int) (int, error) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s%s must be a valid integer: %w", EnvPrefix, name, err)
		}
		return i, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

// Validate checks the settings the selected backend needs
func (c *Config) Validate() []error {
	var errs []error

	switch strings.ToLower(c.Backend) {
	case "sqlite":
		if c.SQLiteDriver != "sqlite" && c.SQLiteDriver != "sqlite3" {
			errs = append(errs, ErrUnknownSQLiteDriver)
		}
	case "postgres", "pg":
		if c.PostgresDSN == "" {
			errs = append(errs, ErrMissingPostgresDSN)
		}
	case "redis":
	default:
		errs = append(errs, ErrUnknownBackend)
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, ErrUnknownLogFormat)
	}
	if c.Parallelism < 0 {
		errs = append(errs, ErrNegativeParallelism)
	}
	return errs
}

// LogSummary returns the configuration with secrets masked
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"backend":        c.Backend,
		"sqlite_path":    c.SQLitePath,
		"sqlite_driver":  c.SQLiteDriver,
		"pg_dsn":         maskDatabaseURL(c.PostgresDSN),
		"pg_schema":      c.PostgresSchema,
		"redis_addr":     c.RedisAddr,
		"redis_password": maskSecret(c.RedisPassword),
		"redis_db":       strconv.Itoa(c.RedisDB),
		"log_level":      c.LogLevel,
		"log_format":     c.LogFormat,
		"parallelism":    strconv.Itoa(c.Parallelism),
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	return "****"
}

// maskDatabaseURL hides the password of a user:password@host URL
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return s
	}
	rest := s[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at == -1 {
		return s
	}
	colon := strings.Index(rest[:at], ":")
	if colon == -1 {
		return s
	}
	return s[:schemeEnd+3] + rest[:colon] + ":****" + rest[at:]
}
