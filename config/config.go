package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration, loaded from environment
// variables.
type Config struct {
	// Marketplace API
	APIBaseURL     string
	APIKey         string
	APISecret      string
	SellerID       string
	DefaultBrandID int
	RequestTimeout time.Duration

	// Feed input
	FeedPath string

	// Database
	DatabasePath    string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Taxonomy
	AttributeTTL time.Duration

	// Submission loop
	MaxAttempts  int
	PollInterval time.Duration
	MaxPolls     int
	MaxWorkers   int
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	config := &Config{
		// Marketplace API
		APIBaseURL:     getEnv("TRENDYOL_BASE_URL", "https://api.trendyol.com/sapigw"),
		APIKey:         os.Getenv("TRENDYOL_API_KEY"),
		APISecret:      os.Getenv("TRENDYOL_API_SECRET"),
		SellerID:       os.Getenv("TRENDYOL_SELLER_ID"),
		DefaultBrandID: getEnvInt("TRENDYOL_DEFAULT_BRAND_ID", 7651),
		RequestTimeout: getEnvDuration("TRENDYOL_REQUEST_TIMEOUT", 30*time.Second),

		// Feed input
		FeedPath: getEnv("FEED_PATH", "feed.json"),

		// Database
		DatabasePath:    getEnv("DATABASE_PATH", "submissions.db"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		// Taxonomy
		AttributeTTL: getEnvDuration("TAXONOMY_ATTRIBUTE_TTL", time.Hour),

		// Submission loop
		MaxAttempts:  getEnvInt("SUBMIT_MAX_ATTEMPTS", 3),
		PollInterval: getEnvDuration("SUBMIT_POLL_INTERVAL", 5*time.Second),
		MaxPolls:     getEnvInt("SUBMIT_MAX_POLLS", 10),
		MaxWorkers:   getEnvInt("SUBMIT_MAX_WORKERS", 4),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TRENDYOL_API_KEY is required")
	}

	if c.APISecret == "" {
		return fmt.Errorf("TRENDYOL_API_SECRET is required")
	}

	if c.SellerID == "" {
		return fmt.Errorf("TRENDYOL_SELLER_ID is required")
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}

	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be greater than 0")
	}

	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max idle connections must be greater than 0")
	}

	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max idle connections cannot be greater than max open connections")
	}

	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be greater than 0")
	}

	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be greater than 0")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
