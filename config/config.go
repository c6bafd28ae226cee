// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every tunable of the service.
type Config struct {
	HTTPPort        int
	StorageDriver   string
	DBPath          string
	DatabaseURL     string
	DBDebug         bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CachePrefix     string
	CacheTTL        time.Duration
	LogLevel        string
	ShutdownTimeout time.Duration
}

// CacheEnabled reports whether a Redis address was configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads the given .env files (default ".env") into the environment and
// parses the result. Missing files are ignored; variables already set in the
// environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv, applying defaults for unset keys.
func Parse(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		HTTPPort:        p.int("HTTP_PORT", 3000),
		StorageDriver:   strings.ToLower(p.string("STORAGE_DRIVER", DriverMemory)),
		DBPath:          p.string("DB_PATH", "tasks.db"),
		DatabaseURL:     p.string("DATABASE_URL", ""),
		DBDebug:         p.bool("DB_DEBUG", false),
		RedisAddr:       p.string("REDIS_ADDR", ""),
		RedisPassword:   p.string("REDIS_PASSWORD", ""),
		RedisDB:         p.int("REDIS_DB", 0),
		CachePrefix:     p.string("CACHE_PREFIX", "task:"),
		CacheTTL:        p.duration("CACHE_TTL", 5*time.Minute),
		LogLevel:        strings.ToLower(p.string("LOG_LEVEL", "info")),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort))
	}
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be one of memory, sqlite, postgres, got %q", c.StorageDriver))
	}
	if c.LogLevel != "info" && c.LogLevel != "error" {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be info or error, got %q", c.LogLevel))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// parser records the first malformed value it sees.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) string(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.string(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid integer for %s: %q", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := p.string(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid boolean for %s: %q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.string(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
