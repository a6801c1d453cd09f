package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Market    MarketConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// MarketConfig holds price-source configuration.
type MarketConfig struct {
	// EquitySuffix is appended to domestic tickers before querying the
	// equity source (".IS" for Borsa Istanbul symbols).
	EquitySuffix string
	// RequestTimeout bounds every outbound price request so one dead
	// source cannot hang a whole calculation.
	RequestTimeout time.Duration
}

// AuthConfig holds the API-key guard configuration. Auth here is a stub:
// a shared key, optionally wrapped in a fernet token with a TTL.
type AuthConfig struct {
	APIKey    string
	FernetKey string
	TokenTTL  time.Duration
}

// SchedulerConfig holds the end-of-day snapshot job configuration.
type SchedulerConfig struct {
	Enabled bool
	// Spec is a cron expression; default fires shortly after the Borsa
	// Istanbul close.
	Spec string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitEnv("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Market: MarketConfig{
			EquitySuffix:   getEnv("EQUITY_SUFFIX", ".IS"),
			RequestTimeout: getDurationEnv("PRICE_REQUEST_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			APIKey:    os.Getenv("INTERNAL_API_KEY"),
			FernetKey: os.Getenv("FERNET_KEY"),
			TokenTTL:  getDurationEnv("API_TOKEN_TTL", 12*time.Hour),
		},
		Scheduler: SchedulerConfig{
			Enabled: getBoolEnv("SCHEDULER_ENABLED", false),
			Spec:    getEnv("SCHEDULER_SPEC", "30 18 * * MON-FRI"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitEnv reads a comma-separated environment variable into a slice.
func splitEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
