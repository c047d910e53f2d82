package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Template TemplateConfig
	Database DatabaseConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// AuthConfig holds the passcode gate and session token configuration
type AuthConfig struct {
	Passcode  string
	JWTSecret string
	TokenTTL  time.Duration
	// AuthRatePerMin bounds passcode attempts per client IP.
	AuthRatePerMin int
}

// TemplateConfig holds base artifact and layout configuration
type TemplateConfig struct {
	Path string
	// LayoutPath optionally overrides the compiled-in cell layout with a
	// JSON file; validated against a schema before use.
	LayoutPath string
	// RequiredFields is a comma-separated list of canonical keys that must
	// be present before projection.
	RequiredFields string
}

// DatabaseConfig holds the report history store configuration
type DatabaseConfig struct {
	Driver      string // "sqlite" or "postgres"
	DSN         string
	DialTimeout time.Duration
}

// IngestConfig holds inbox watcher configuration
type IngestConfig struct {
	InboxDir  string
	OutputDir string
	Debounce  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			Passcode:       getEnv("APP_PASSCODE", ""),
			JWTSecret:      getEnv("JWT_SECRET", ""),
			TokenTTL:       getEnvAsDuration("TOKEN_TTL", 12*time.Hour),
			AuthRatePerMin: getEnvAsInt("AUTH_RATE_PER_MIN", 10),
		},
		Template: TemplateConfig{
			Path:           getEnv("TEMPLATE_PATH", "template.xlsm"),
			LayoutPath:     getEnv("LAYOUT_PATH", ""),
			RequiredFields: getEnv("REQUIRED_FIELDS", ""),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", "sqlite"),
			DSN:         getEnv("DB_URL", "file:reports.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Ingest: IngestConfig{
			InboxDir:  getEnv("INBOX_DIR", ""),
			OutputDir: getEnv("OUTPUT_DIR", "./out"),
			Debounce:  getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Auth.Passcode == "" {
		return NewAppError("CONFIG_ERROR", "APP_PASSCODE is required", ErrInvalidInput)
	}
	if c.Auth.JWTSecret == "" {
		return NewAppError("CONFIG_ERROR", "JWT_SECRET is required", ErrInvalidInput)
	}
	if c.Template.Path == "" {
		return NewAppError("CONFIG_ERROR", "TEMPLATE_PATH is required", ErrInvalidInput)
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	return nil
}
