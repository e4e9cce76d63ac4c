package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Public site identity used for classifier requests and notifications
	Site SiteConfig

	// Spam classifier configuration
	Akismet AkismetConfig

	// Moderation heuristics
	Moderation ModerationConfig

	// Outbound mail
	SMTP SMTPConfig

	// Notification dispatcher
	Notify NotifyConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// SiteConfig describes the blog the comments belong to
type SiteConfig struct {
	URL      string
	Name     string
	Locale   string
	Charset  string
	Timezone string
	// BootstrapAPIKey seeds the API key setting on first start instead of generating one
	BootstrapAPIKey string
}

// AkismetConfig holds spam classifier settings
type AkismetConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ModerationConfig mirrors the host platform's discussion settings
type ModerationConfig struct {
	RequireModeration  bool
	PreviouslyApproved bool
	MaxLinks           int
	Keys               []string
}

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// NotifyConfig holds notification dispatcher settings
type NotifyConfig struct {
	ModeratorEmail string
	Workers        int
	QueueSize      int
	SendTimeout    time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables, after loading a .env file if present
func Load() (*Config, error) {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "headless_comments"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Site: SiteConfig{
			URL:             strings.TrimRight(getEnv("SITE_URL", "http://localhost"), "/"),
			Name:            getEnv("SITE_NAME", "Blog"),
			Locale:          getEnv("SITE_LOCALE", "en_US"),
			Charset:         getEnv("SITE_CHARSET", "UTF-8"),
			Timezone:        getEnv("SITE_TIMEZONE", "UTC"),
			BootstrapAPIKey: getEnv("API_KEY", ""),
		},
		Akismet: AkismetConfig{
			APIKey:   getEnv("AKISMET_API_KEY", ""),
			Endpoint: getEnv("AKISMET_ENDPOINT", ""),
			Timeout:  getDurationEnv("AKISMET_TIMEOUT", 5*time.Second),
		},
		Moderation: ModerationConfig{
			RequireModeration:  getBoolEnv("COMMENT_MODERATION", false),
			PreviouslyApproved: getBoolEnv("COMMENT_PREVIOUSLY_APPROVED", true),
			MaxLinks:           getIntEnv("COMMENT_MAX_LINKS", 2),
			Keys:               getListEnv("MODERATION_KEYS"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			FromName: getEnv("SMTP_FROM_NAME", ""),
		},
		Notify: NotifyConfig{
			ModeratorEmail: getEnv("MODERATOR_EMAIL", ""),
			Workers:        getIntEnv("NOTIFY_WORKERS", 2),
			QueueSize:      getIntEnv("NOTIFY_QUEUE_SIZE", 256),
			SendTimeout:    getDurationEnv("NOTIFY_SEND_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return fmt.Errorf("SITE_TIMEZONE is invalid: %w", err)
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be at least 1")
	}
	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be at least 1")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Location returns the site timezone. Validate guarantees it parses.
func (c *SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Enabled reports whether enough SMTP settings are present to send mail
func (c *SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getListEnv splits a comma or newline separated variable, dropping blanks
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
