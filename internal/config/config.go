package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // LOCAL_TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Timetable query configuration
	Timetable TimetableConfig

	// GTFS import configuration
	GTFS GTFSConfig

	// Background job configuration
	Scheduler SchedulerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	AdminUsername    string // optional bootstrap admin account
	AdminPassword    string

	// Failed login throttling
	LoginMaxAttempts   int
	LoginWindow        time.Duration
	LoginMaxIPAttempts int
	LoginIPWindow      time.Duration
}

// HardMaxLimit bounds every departure, arrival and connection list.
// TIMETABLE_MAX_LIMIT may lower it but never raise it.
const HardMaxLimit = 50

// TimetableConfig holds limits for departure/arrival/connection queries
type TimetableConfig struct {
	DefaultLimit  int
	MaxLimit      int
	LocalTimezone string // timezone written on synthetic agency rows
}

// GTFSConfig holds GTFS feed import configuration
type GTFSConfig struct {
	FeedsFile       string
	DownloadTimeout time.Duration
}

// SchedulerConfig holds cron schedules (six fields, seconds first).
// An empty schedule disables the job.
type SchedulerConfig struct {
	FeedRefreshSchedule  string
	FeedRefreshFeed      string
	LoginCleanupSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 1200)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			AdminUsername:    getEnv("ADMIN_USERNAME", ""),
			AdminPassword:    getEnv("ADMIN_PASSWORD", ""),

			LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:        time.Duration(getEnvAsInt("LOGIN_WINDOW", 900)) * time.Second,
			LoginMaxIPAttempts: getEnvAsInt("LOGIN_MAX_IP_ATTEMPTS", 20),
			LoginIPWindow:      time.Duration(getEnvAsInt("LOGIN_IP_WINDOW", 3600)) * time.Second,
		},
		Timetable: TimetableConfig{
			DefaultLimit:  getEnvAsInt("TIMETABLE_DEFAULT_LIMIT", 10),
			MaxLimit:      getEnvAsInt("TIMETABLE_MAX_LIMIT", 50),
			LocalTimezone: getEnv("LOCAL_TIMEZONE", "Europe/Warsaw"),
		},
		GTFS: GTFSConfig{
			FeedsFile:       getEnv("GTFS_FEEDS_FILE", "feeds.yml"),
			DownloadTimeout: time.Duration(getEnvAsInt("GTFS_DOWNLOAD_TIMEOUT", 120)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			FeedRefreshSchedule:  getEnv("GTFS_REFRESH_SCHEDULE", ""),
			FeedRefreshFeed:      getEnv("GTFS_REFRESH_FEED", ""),
			LoginCleanupSchedule: getEnv("LOGIN_CLEANUP_SCHEDULE", "0 0 * * * *"),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Timetable.DefaultLimit <= 0 || c.Timetable.MaxLimit <= 0 {
		return fmt.Errorf("TIMETABLE_DEFAULT_LIMIT and TIMETABLE_MAX_LIMIT must be positive")
	}

	if c.Timetable.MaxLimit > HardMaxLimit {
		return fmt.Errorf("TIMETABLE_MAX_LIMIT (%d) exceeds the hard cap of %d", c.Timetable.MaxLimit, HardMaxLimit)
	}

	if c.Timetable.DefaultLimit > c.Timetable.MaxLimit {
		return fmt.Errorf("TIMETABLE_DEFAULT_LIMIT (%d) exceeds TIMETABLE_MAX_LIMIT (%d)",
			c.Timetable.DefaultLimit, c.Timetable.MaxLimit)
	}

	if _, err := time.LoadLocation(c.Timetable.LocalTimezone); err != nil {
		return fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", c.Timetable.LocalTimezone, err)
	}

	if (c.Security.AdminUsername == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if c.Scheduler.FeedRefreshSchedule != "" && c.Scheduler.FeedRefreshFeed == "" {
		return fmt.Errorf("GTFS_REFRESH_FEED is required when GTFS_REFRESH_SCHEDULE is set")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
