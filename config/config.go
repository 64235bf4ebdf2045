package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"luckydraw/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr       string
	AdminJWTSecret string // HS256 secret used to verify admin bearer tokens; empty disables verification

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated); empty disables publishing

	// Discord announcer configuration
	DiscordToken     string
	DiscordChannelID string

	// Draw engine configuration
	RedrawAllowSameWinner bool          // Whether a voided winner may win the same slot again
	MaxDrawAttempts       int           // Attempts per draw when two draws pick the same participant
	DrawTimeout           time.Duration // Upper bound for a single engine operation

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// DiscordEnabled reports whether the Discord announcer has everything it needs
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// load loads configuration from an optional .env file and the environment
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":4000"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		MaxDrawAttempts: 3,
		DrawTimeout:     10 * time.Second,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("REDRAW_ALLOW_SAME_WINNER"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDRAW_ALLOW_SAME_WINNER %q: %w", v, err)
		}
		config.RedrawAllowSameWinner = allow
	}
	if v := os.Getenv("MAX_DRAW_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts < 1 {
			return nil, fmt.Errorf("MAX_DRAW_ATTEMPTS must be a positive integer, got %q", v)
		}
		config.MaxDrawAttempts = attempts
	}
	if v := os.Getenv("DRAW_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("DRAW_TIMEOUT must be a positive duration, got %q", v)
		}
		config.DrawTimeout = timeout
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if (config.DiscordToken == "") != (config.DiscordChannelID == "") {
			log.Warn("DISCORD_TOKEN and DISCORD_CHANNEL_ID must both be set to enable announcements")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:     "test",
		HTTPAddr:        ":0",
		MaxDrawAttempts: 3,
		DrawTimeout:     5 * time.Second,
		LogLevel:        "debug",
	}
}
