package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DataConfig says where the dataset comes from. Source is a file path, an
// http(s) URL, or a postgres:// or sqlite:// database URL.
type DataConfig struct {
	Source string `toml:"source"`
	Table  string `toml:"table"`
}

// RedisConfig holds Redis connection configuration. An empty URL disables the
// snapshot cache.
type RedisConfig struct {
	URL         string `toml:"url"`
	SnapshotTTL string `toml:"snapshot_ttl"`
}

// RateLimitConfig limits requests per client IP.
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// ViewsConfig tunes view behaviour.
type ViewsConfig struct {
	StrictPlayerRoutes bool `toml:"strict_player_routes"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Redis     RedisConfig     `toml:"redis"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Views     ViewsConfig     `toml:"views"`
	Log       LogConfig       `toml:"log"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8050",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Data: DataConfig{
			Source: "csv files/nba_player_stats.csv",
			Table:  "player_stats",
		},
		Redis: RedisConfig{
			SnapshotTTL: "24h",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the TOML file named
// by CONFIG_FILE (if any), then environment variables, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("DASHBOARD_ADDR", c.Server.Addr)
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	c.Data.Source = getEnv("DATA_SOURCE", c.Data.Source)
	c.Data.Table = getEnv("DATA_TABLE", c.Data.Table)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.SnapshotTTL = getEnv("SNAPSHOT_TTL", c.Redis.SnapshotTTL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	var errs []error
	var err error
	if c.RateLimit.Enabled, err = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.RPS, err = getEnvFloat("RATE_LIMIT_RPS", c.RateLimit.RPS); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst); err != nil {
		errs = append(errs, err)
	}
	if c.Views.StrictPlayerRoutes, err = getEnvBool("STRICT_PLAYER_ROUTES", c.Views.StrictPlayerRoutes); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	if strings.TrimSpace(c.Data.Source) == "" {
		errs = append(errs, errors.New("data source is required"))
	}
	if c.Data.Table == "" {
		errs = append(errs, errors.New("data table is required"))
	}
	if ttl, err := time.ParseDuration(c.Redis.SnapshotTTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("invalid snapshot ttl %q", c.Redis.SnapshotTTL))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, fmt.Errorf("rate limit needs positive rps and burst, got %v/%d", c.RateLimit.RPS, c.RateLimit.Burst))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SnapshotTTL returns the parsed snapshot TTL. Call after Validate.
func (c *Config) SnapshotTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Redis.SnapshotTTL)
	return ttl
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
