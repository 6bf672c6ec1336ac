package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pipeline
type Config struct {
	// Gemini API settings
	GeminiAPIKey        string `json:"-"` // Don't expose in JSON
	GeminiModel         string `json:"gemini_model"`
	GeminiRPM           int    `json:"gemini_rpm"`
	GeminiRetryAttempts int    `json:"gemini_retry_attempts"`
	CacheTTLHours       int    `json:"cache_ttl_hours"` // 0 disables the digest cache

	// Mail settings
	SenderEmail    string   `json:"sender_email"`
	SenderPassword string   `json:"-"` // Don't expose in JSON
	Recipients     []string `json:"recipients"`
	SMTPHost       string   `json:"smtp_host"`
	SMTPPort       int      `json:"smtp_port"`

	// Hand-off files
	ArticlesFile       string `json:"articles_file"`
	NewsletterHTMLFile string `json:"newsletter_html_file"`
	NewsletterTextFile string `json:"newsletter_text_file"`

	// Collector settings
	FeedsFile            string `json:"feeds_file"`
	KeywordsFile         string `json:"keywords_file"`
	MaxConcurrentFetches int    `json:"max_concurrent_fetches"`
	HTTPTimeoutSeconds   int    `json:"http_timeout_seconds"`

	// Scheduling
	CronSchedule string `json:"cron_schedule"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"` // empty means stdout only
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		GeminiAPIKey:        getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiRPM:           getEnvOrDefaultInt("GEMINI_RPM", 15),
		GeminiRetryAttempts: getEnvOrDefaultInt("GEMINI_RETRY_ATTEMPTS", 5),
		CacheTTLHours:       getEnvOrDefaultInt("CACHE_TTL_HOURS", 24),

		SenderEmail:    getEnvOrDefault("SENDER_EMAIL", ""),
		SenderPassword: getEnvOrDefault("SENDER_PASSWORD", ""),
		Recipients:     parseStringSlice(getEnvOrDefault("RECIPIENT_EMAIL", "")),
		SMTPHost:       getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnvOrDefaultInt("SMTP_PORT", 587),

		ArticlesFile:       getEnvOrDefault("ARTICLES_FILE", "news_articles.csv"),
		NewsletterHTMLFile: getEnvOrDefault("NEWSLETTER_HTML_FILE", "newsletter.html"),
		NewsletterTextFile: getEnvOrDefault("NEWSLETTER_TEXT_FILE", "newsletter.txt"),

		FeedsFile:            getEnvOrDefault("FEEDS_FILE", ""),
		KeywordsFile:         getEnvOrDefault("KEYWORDS_FILE", ""),
		MaxConcurrentFetches: getEnvOrDefaultInt("MAX_CONCURRENT_FETCHES", 5),
		HTTPTimeoutSeconds:   getEnvOrDefaultInt("HTTP_TIMEOUT_SECONDS", 30),

		CronSchedule: getEnvOrDefault("CRON_SCHEDULE", "0 7 * * *"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", ""),
	}

	return config, nil
}

// ValidateBuild checks the configuration required by the build stage
func (c *Config) ValidateBuild() error {
	if c.GeminiAPIKey == "" {
		return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
	}
	if c.GeminiModel == "" {
		return &ConfigError{Field: "GEMINI_MODEL", Message: "Gemini model name is required"}
	}
	return nil
}

// ValidateSend checks the configuration required by the send stage
func (c *Config) ValidateSend() error {
	if c.SenderEmail == "" {
		return &ConfigError{Field: "SENDER_EMAIL", Message: "sender email is required"}
	}
	if c.SenderPassword == "" {
		return &ConfigError{Field: "SENDER_PASSWORD", Message: "sender password is required (use an app password, not the account password)"}
	}
	if len(c.Recipients) == 0 {
		return &ConfigError{Field: "RECIPIENT_EMAIL", Message: "at least one recipient is required"}
	}
	if c.SMTPHost == "" {
		return &ConfigError{Field: "SMTP_HOST", Message: "SMTP host is required"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
