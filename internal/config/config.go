package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Authentication (optional; routes are public when unset)
	JWTSecret string `env:"JWT_SECRET"`

	// Redis Cache
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL" default:"10m"`

	// Primary Source (scraped)
	RoyalRoadBaseURL string        `env:"ROYALROAD_BASE_URL" default:"https://www.royalroad.com"`
	RoyalRoadTimeout time.Duration `env:"ROYALROAD_TIMEOUT" default:"8s"`
	RoyalRoadRate    int           `env:"ROYALROAD_RATE_PER_SEC" default:"2"`

	// Secondary Source (API)
	GoogleBooksBaseURL string        `env:"GOOGLE_BOOKS_BASE_URL" default:"https://www.googleapis.com/books/v1"`
	GoogleBooksTimeout time.Duration `env:"GOOGLE_BOOKS_TIMEOUT" default:"10s"`

	// Development
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"json"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Missing .env is fine; system env vars still apply
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Ports
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvString(&config.JWTSecret, "JWT_SECRET", ""); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisAddr, "REDIS_ADDR", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ListingCacheTTL, "LISTING_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Upstream sources
	if err := loadEnvString(&config.RoyalRoadBaseURL, "ROYALROAD_BASE_URL", "https://www.royalroad.com"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RoyalRoadTimeout, "ROYALROAD_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RoyalRoadRate, "ROYALROAD_RATE_PER_SEC", 2); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.GoogleBooksBaseURL, "GOOGLE_BOOKS_BASE_URL", "https://www.googleapis.com/books/v1"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.GoogleBooksTimeout, "GOOGLE_BOOKS_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "json"); err != nil {
		return nil, err
	}

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	if c.RoyalRoadRate < 1 {
		errors = append(errors, "ROYALROAD_RATE_PER_SEC must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// JWT auth is opt-in, but a configured secret must be usable
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// AuthEnabled reports whether request authentication should be enforced.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
