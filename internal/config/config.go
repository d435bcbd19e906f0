package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"timestudy/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ops      OpsConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Report   ReportConfig
	Sessions SessionConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string
	URL    string
	Reset  bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// OpsConfig holds the health/profiling listener settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// AuthConfig holds badge login settings
type AuthConfig struct {
	SessionTTL time.Duration
	CookieName string
}

// UploadConfig holds spreadsheet upload limits
type UploadConfig struct {
	MaxBytes int64
}

// ReportConfig holds report settings
type ReportConfig struct {
	Location *time.Location
}

// SessionConfig holds timing session lifecycle settings
type SessionConfig struct {
	AbandonAfter time.Duration
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	reportConfig, err := loadReportConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load report configuration")
	}
	config.Report = *reportConfig

	config.Server = *loadServerConfig()
	config.Ops = *loadOpsConfig()
	config.Auth = *loadAuthConfig()
	config.Upload = *loadUploadConfig()
	config.Sessions = *loadSessionConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverPostgres)),
		URL:    url,
		Reset:  getEnvBoolOrDefault("RESET_DATABASE", false),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func loadAuthConfig() *AuthConfig {
	return &AuthConfig{
		SessionTTL: getEnvDurationOrDefault("AUTH_SESSION_TTL", 24*time.Hour),
		CookieName: getEnvOrDefault("AUTH_COOKIE_NAME", "ts_session"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxBytes: int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 10*1024*1024)),
	}
}

func loadReportConfig() (*ReportConfig, error) {
	name := getEnvOrDefault("REPORT_TIMEZONE", "Local")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.ConfigInvalid("REPORT_TIMEZONE is not a valid time zone: " + name)
	}
	return &ReportConfig{Location: loc}, nil
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		AbandonAfter: getEnvDurationOrDefault("ABANDON_AFTER", 12*time.Hour),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Database.Driver != DriverPostgres && config.Database.Driver != DriverSQLite {
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	if config.Auth.SessionTTL <= 0 {
		return errors.ConfigInvalid("AUTH_SESSION_TTL must be positive")
	}
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	if config.Sessions.AbandonAfter <= 0 {
		return errors.ConfigInvalid("ABANDON_AFTER must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
