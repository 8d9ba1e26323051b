package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Endpoint names, also used as cache signature prefixes and metric labels.
const (
	EndpointCohorts    = "cohorts"
	EndpointLifecycle  = "lifecycle"
	EndpointTimeSeries = "timeseries"
)

const (
	minTTL = 30 * time.Second
	maxTTL = 600 * time.Second
)

// Config contains the settings of the server and the report commands.
type Config struct {
	HTTPAddr       string  `env:"ANALYTICS_HTTP_ADDR,default=:8080"`
	DSN            string  `env:"ANALYTICS_DSN"`
	OrderTable     string  `env:"ANALYTICS_ORDER_TABLE,default=orders"`
	Timezone       string  `env:"ANALYTICS_TIMEZONE,default=UTC"`
	CacheBackend   string  `env:"ANALYTICS_CACHE_BACKEND,default=memory"`
	RedisAddr      string  `env:"ANALYTICS_REDIS_ADDR,default=localhost:6379"`
	RateLimit      float64 `env:"ANALYTICS_RATE_LIMIT,default=20"`
	RateBurst      int     `env:"ANALYTICS_RATE_BURST,default=40"`
	FetchBatchSize int     `env:"ANALYTICS_FETCH_BATCH,default=500"`
	LogLevel       string  `env:"ANALYTICS_LOG_LEVEL,default=info"`
	LogDevelopment bool    `env:"ANALYTICS_LOG_DEVELOPMENT,default=false"`
	TTLFile        string  `env:"ANALYTICS_TTL_FILE"`

	ttls     map[string]time.Duration
	location *time.Location
}

// DefaultTTLs are the cache lifetimes used when no TTL file overrides them.
func DefaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		EndpointCohorts:    600 * time.Second,
		EndpointLifecycle:  300 * time.Second,
		EndpointTimeSeries: 30 * time.Second,
	}
}

// Load reads an optional .env file, decodes ANALYTICS_* variables and the
// optional TTL file, then validates the result.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	cfg.ttls = DefaultTTLs()
	if cfg.TTLFile != "" {
		raw, err := os.ReadFile(cfg.TTLFile)
		if err != nil {
			return Config{}, fmt.Errorf("read ttl file: %w", err)
		}
		overrides, err := parseTTLs(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ttl file %s: %w", cfg.TTLFile, err)
		}
		for k, v := range overrides {
			cfg.ttls[k] = v
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ttlFile is the YAML shape of ANALYTICS_TTL_FILE:
//
//	cache_ttls:
//	  cohorts: 10m
//	  timeseries: 45s
type ttlFile struct {
	CacheTTLs map[string]string `yaml:"cache_ttls"`
}

func parseTTLs(raw []byte) (map[string]time.Duration, error) {
	var f ttlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make(map[string]time.Duration, len(f.CacheTTLs))
	for endpoint, v := range f.CacheTTLs {
		if _, known := DefaultTTLs()[endpoint]; !known {
			return nil, fmt.Errorf("unknown endpoint %q", endpoint)
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		out[endpoint] = clampTTL(d)
	}
	return out, nil
}

func clampTTL(d time.Duration) time.Duration {
	if d < minTTL {
		return minTTL
	}
	if d > maxTTL {
		return maxTTL
	}
	return d
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("ANALYTICS_TIMEZONE: %w", err)
	}
	c.location = loc

	switch c.CacheBackend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("ANALYTICS_CACHE_BACKEND: unknown backend %q", c.CacheBackend)
	}
	if c.FetchBatchSize <= 0 {
		return fmt.Errorf("ANALYTICS_FETCH_BATCH must be positive")
	}
	// A zero rate turns per-client limiting off.
	if c.RateLimit < 0 {
		return fmt.Errorf("ANALYTICS_RATE_LIMIT must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("ANALYTICS_RATE_BURST must be positive when ANALYTICS_RATE_LIMIT is set")
	}
	return nil
}

// TTL returns the cache lifetime of endpoint.
func (c Config) TTL(endpoint string) time.Duration {
	if d, ok := c.ttls[endpoint]; ok {
		return d
	}
	if d, ok := DefaultTTLs()[endpoint]; ok {
		return d
	}
	return minTTL
}

// Location is the zone calendar dates are interpreted in.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
