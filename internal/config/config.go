// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendOrigin string

	// Provider selects the upstream model service: "openai" or "anthropic".
	Provider string
	// ModelName overrides the provider's default model when non-empty.
	ModelName string
	// APIKey overrides the SDK's own environment lookup when non-empty.
	APIKey string

	Temperature     float64
	MaxOutputTokens int64

	MaxTextLen      int
	MinInterval     time.Duration
	TranscriptLimit int
	MaxSessions     int

	MaxParallel        int
	RetryAttempts      int
	BackoffBase        time.Duration
	LongDelayThreshold time.Duration
	Pace               time.Duration

	PromptCharBudget int

	Mail MailConfig

	LogLevel  string
	LogFormat string
}

// MailConfig holds SMTP settings for the contact form relay. Contact mail is
// disabled when Host is empty.
type MailConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
	To   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3001"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", ""),

		Provider:        getEnv("AI_PROVIDER", "openai"),
		ModelName:       getEnv("AI_MODEL", ""),
		APIKey:          getEnv("AI_API_KEY", ""),
		Temperature:     getEnvFloat("AI_TEMPERATURE", 0.2),
		MaxOutputTokens: int64(getEnvInt("AI_MAX_OUTPUT_TOKENS", 320)),

		MaxTextLen:      getEnvInt("CHAT_MAX_TEXT_LEN", 1200),
		MinInterval:     getEnvDuration("CHAT_MIN_INTERVAL", 400*time.Millisecond),
		TranscriptLimit: getEnvInt("CHAT_TRANSCRIPT_LIMIT", 30),
		MaxSessions:     getEnvInt("CHAT_MAX_SESSIONS", 10000),

		MaxParallel:        getEnvInt("DISPATCH_MAX_PARALLEL", 2),
		RetryAttempts:      getEnvInt("DISPATCH_RETRY_ATTEMPTS", 4),
		BackoffBase:        getEnvDuration("DISPATCH_BACKOFF_BASE", 500*time.Millisecond),
		LongDelayThreshold: getEnvDuration("DISPATCH_LONG_DELAY_THRESHOLD", 10*time.Second),
		Pace:               getEnvDuration("DISPATCH_PACE", 0),

		PromptCharBudget: getEnvInt("CHAT_PROMPT_CHAR_BUDGET", 6000),

		Mail: MailConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnv("SMTP_PORT", "587"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
			To:   getEnv("CONTACT_TO", "contacto@rids.cl"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("AI_PROVIDER must be \"openai\" or \"anthropic\", got %q", c.Provider)
	}
	if c.MaxTextLen <= 0 {
		return fmt.Errorf("CHAT_MAX_TEXT_LEN must be > 0")
	}
	if c.MinInterval < 0 {
		return fmt.Errorf("CHAT_MIN_INTERVAL cannot be negative")
	}
	if c.TranscriptLimit <= 0 {
		return fmt.Errorf("CHAT_TRANSCRIPT_LIMIT must be > 0")
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("DISPATCH_MAX_PARALLEL must be > 0")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("DISPATCH_RETRY_ATTEMPTS must be > 0")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("AI_MAX_OUTPUT_TOKENS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running against a local frontend.
func (c *Config) IsDevelopment() bool {
	return c.FrontendOrigin == "" ||
		strings.Contains(c.FrontendOrigin, "localhost") ||
		strings.Contains(c.FrontendOrigin, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
