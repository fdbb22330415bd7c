package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SourceConfig configures one source adapter.
type SourceConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Kind    string `yaml:"kind" validate:"required,oneof=structured document rendered"`
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// APIKeyEnv names the environment variable holding the source's
	// API key, for sources that need one. The key itself never lives
	// in the config file.
	APIKeyEnv string `yaml:"api_key_env"`

	Timeout     time.Duration `yaml:"timeout" default:"30s"`
	Retries     int           `yaml:"retries" default:"2"`
	BaseBackoff time.Duration `yaml:"base_backoff" default:"1s"`

	// WaitSelector is the element a rendered source waits for before
	// extraction (best effort).
	WaitSelector string `yaml:"wait_selector"`

	// RateLimited marks the one source whose requests are gated by the
	// daily quota and time-of-day windows.
	RateLimited bool `yaml:"rate_limited"`
}

// WindowConfig is one scheduled fetch window for the rate-limited source.
type WindowConfig struct {
	FetchType string        `yaml:"fetch_type" validate:"required,oneof=open upcoming listed"`
	Start     string        `yaml:"start" validate:"required"` // "15:04" local to quota timezone
	Length    time.Duration `yaml:"length" default:"45m"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Aggregator struct {
		Concurrency int           `yaml:"concurrency" default:"2" validate:"min=1"`
		CacheTTL    time.Duration `yaml:"cache_ttl" default:"5m"`
		// Cron schedule for timer-driven passes; empty disables them.
		Schedule string `yaml:"schedule"`
	} `yaml:"aggregator"`

	Quota struct {
		DailyLimit int            `yaml:"daily_limit" default:"25" validate:"min=1"`
		Timezone   string         `yaml:"timezone" default:"Asia/Kolkata"`
		Windows    []WindowConfig `yaml:"windows" validate:"dive"`
	} `yaml:"quota"`

	Sources []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"ipopulse"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"clickhouse"`

	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"postgres"`

	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"ipopulse.passes"`
	} `yaml:"kafka"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads, defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := c.check(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config and applies environment overrides for values
// that usually come from the deployment rather than the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	return c, nil
}

// check covers cross-field rules validator tags cannot express.
func (c *Config) check() error {
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return fmt.Errorf("quota.timezone: %w", err)
	}

	limited := 0
	seen := map[string]bool{}
	for _, s := range c.Sources {
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.RateLimited {
			limited++
			if s.APIKeyEnv == "" {
				return fmt.Errorf("source %s: rate_limited sources require api_key_env", s.Name)
			}
		}
	}
	if limited > 1 {
		return fmt.Errorf("at most one rate-limited source is supported, got %d", limited)
	}

	for _, w := range c.Quota.Windows {
		if _, err := time.Parse("15:04", w.Start); err != nil {
			return fmt.Errorf("quota window %s: bad start %q", w.FetchType, w.Start)
		}
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}

	return nil
}

// Source returns the config for a named source.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
