package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Shorebreak server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Workflow WorkflowConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// WorkflowConfig configures the external analysis workflow engine: one
// webhook endpoint per analysis kind plus the trigger/poll parameters.
// These are deployment constants, not per-request options.
type WorkflowConfig struct {
	ReviewsWebhookURL string
	SEOWebhookURL     string
	TriggerTimeout    time.Duration
	PollInterval      time.Duration
	MaxPollDuration   time.Duration
}

type MetricsConfig struct {
	CollectInterval time.Duration
	FetchTimeout    time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SHOREBREAK_PORT", 8080),
			Env:  envString("SHOREBREAK_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			SessionTTL: envDuration("SESSION_TTL", 24*time.Hour),
			BcryptCost: envInt("BCRYPT_COST", 12),
		},
		Workflow: WorkflowConfig{
			ReviewsWebhookURL: os.Getenv("WORKFLOW_REVIEWS_URL"),
			SEOWebhookURL:     os.Getenv("WORKFLOW_SEO_URL"),
			TriggerTimeout:    envDuration("WORKFLOW_TRIGGER_TIMEOUT", 30*time.Second),
			PollInterval:      envDuration("WORKFLOW_POLL_INTERVAL", 3*time.Second),
			MaxPollDuration:   envDuration("WORKFLOW_MAX_POLL_DURATION", 10*time.Minute),
		},
		Metrics: MetricsConfig{
			CollectInterval: envDuration("METRICS_COLLECT_INTERVAL", 24*time.Hour),
			FetchTimeout:    envDuration("METRICS_FETCH_TIMEOUT", 20*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Workflow.ReviewsWebhookURL == "" {
		return fmt.Errorf("WORKFLOW_REVIEWS_URL is required")
	}
	if c.Workflow.SEOWebhookURL == "" {
		return fmt.Errorf("WORKFLOW_SEO_URL is required")
	}
	for _, u := range []string{c.Workflow.ReviewsWebhookURL, c.Workflow.SEOWebhookURL} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("workflow webhook URL must start with http:// or https://, got %q", u)
		}
	}

	if c.Workflow.PollInterval <= 0 {
		return fmt.Errorf("WORKFLOW_POLL_INTERVAL must be positive")
	}
	if c.Workflow.MaxPollDuration < c.Workflow.PollInterval {
		return fmt.Errorf("WORKFLOW_MAX_POLL_DURATION must be at least WORKFLOW_POLL_INTERVAL")
	}

	return nil
}

// WebhookURL returns the webhook endpoint for an analysis kind, or "" for
// an unknown kind.
func (c WorkflowConfig) WebhookURL(kind string) string {
	switch kind {
	case "reviews":
		return c.ReviewsWebhookURL
	case "seo":
		return c.SEOWebhookURL
	}
	return ""
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
