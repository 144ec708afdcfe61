// Package config centralises configuration parsing for the recap binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/minormending/slack-run-across-america/internal/recap"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress    string
	MetricsAddress string
	LogMode        string
	LogLevel       string

	RAABaseURL string
	RAAToken   string
	RAAUserID  string
	RAATimeout time.Duration

	SlackToken      string
	SlackChannel    string
	SlackWebhookURL string
	SlackAPIURL     string

	CutoffPolicy        string
	ReportWindow        time.Duration
	ClassifierRulesFile string

	PostgresURL string

	RedisAddr        string
	UpstreamCacheTTL time.Duration

	KafkaBrokers       []string
	RecapEventsTopic   string
	RecapRequestsTopic string
	ConsumerGroupID    string
	EnablePublish      bool

	JWTSecret string
	JWTIssuer string

	SentryDSN         string
	SentryEnvironment string

	DispatchConcurrency int
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:    getEnv("HTTP_ADDRESS", ":8080"),
		MetricsAddress: getEnv("METRICS_ADDRESS", ":9195"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		RAABaseURL: getEnv("RAA_BASE_URL", "https://api.runacrossamerica.org/v1"),
		RAAToken:   getEnv("RAA_TOKEN", ""),
		RAAUserID:  getEnv("RAA_USER_ID", ""),
		RAATimeout: getDurationEnv("RAA_TIMEOUT", 30*time.Second),

		SlackToken:      getEnv("SLACK_TOKEN", ""),
		SlackChannel:    getEnv("SLACK_CHANNEL", ""),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		SlackAPIURL:     getEnv("SLACK_API_URL", "https://slack.com/api/"),

		CutoffPolicy:        getEnv("CUTOFF_POLICY", string(recap.CutoffRolling)),
		ReportWindow:        getDurationEnv("REPORT_WINDOW", recap.DefaultWindow),
		ClassifierRulesFile: getEnv("CLASSIFIER_RULES_FILE", ""),

		PostgresURL: getEnv("POSTGRES_URL", ""),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		UpstreamCacheTTL: getDurationEnv("UPSTREAM_CACHE_TTL", 5*time.Minute),

		RecapEventsTopic:   getEnv("RECAP_EVENTS_TOPIC", "recap.generated"),
		RecapRequestsTopic: getEnv("RECAP_REQUESTS_TOPIC", "recap.requested"),
		ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "recap-consumer"),
		EnablePublish:      getBoolEnv("ENABLE_PUBLISH", false),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer: getEnv("JWT_ISSUER", "i5e.identity"),

		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "development"),

		DispatchConcurrency: getIntEnv("DISPATCH_CONCURRENCY", 4),
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092"))
	return cfg
}

// Validate rejects settings no binary can run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := recap.ParseCutoffPolicy(c.CutoffPolicy); err != nil {
		errs = append(errs, fmt.Errorf("CUTOFF_POLICY: %w", err))
	}
	if c.ReportWindow <= 0 {
		errs = append(errs, fmt.Errorf("REPORT_WINDOW must be positive, got %s", c.ReportWindow))
	}
	if c.DispatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_CONCURRENCY must be positive, got %d", c.DispatchConcurrency))
	}
	return errors.Join(errs...)
}

// Cutoff returns the parsed cutoff policy. Call Validate first.
func (c Config) Cutoff() recap.CutoffPolicy {
	policy, err := recap.ParseCutoffPolicy(c.CutoffPolicy)
	if err != nil {
		return recap.CutoffRolling
	}
	return policy
}

// SlackConfigured reports whether enough Slack settings exist to post.
func (c Config) SlackConfigured() bool {
	return c.SlackWebhookURL != "" || c.SlackToken != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
