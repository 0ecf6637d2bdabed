package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/facilisimo/sorteos/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Logging
	Debug     bool
	LogFormat string // "text" or "json"
	LogFile   string // rotated log file, empty logs to stderr only

	// Session storage
	StorageBackend   string // "memory", "file" or "azure"
	SessionDir       string
	StorageAccount   string
	StorageContainer string
	StoragePrefix    string

	// Winner selection
	MaxPermutationLength int
	DefaultMaxWinners    int

	// Export images
	LogoURL       string
	WatermarkURL  string
	FooterLogoURL string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Scheduled draw
	DrawSchedule   string // 6-field cron expression, empty disables
	DrawMode       models.SearchMode
	DrawQuery      string
	DrawOrdered    bool
	DrawMaxWinners int
	DrawTitle      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Debug:     getBoolEnv("DEBUG", false),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),

		StorageBackend:   getEnv("STORAGE_BACKEND", "file"),
		SessionDir:       getEnv("SESSION_DIR", ".sorteo"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "sorteos"),
		StoragePrefix:    getEnv("AZURE_STORAGE_PREFIX", "session/"),

		MaxPermutationLength: getIntEnv("MAX_PERMUTATION_LENGTH", 8),
		DefaultMaxWinners:    getIntEnv("DEFAULT_MAX_WINNERS", 1),

		LogoURL:       getEnv("LOGO_URL", ""),
		WatermarkURL:  getEnv("WATERMARK_URL", ""),
		FooterLogoURL: getEnv("FOOTER_LOGO_URL", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		DrawSchedule:   getEnv("DRAW_SCHEDULE", ""),
		DrawMode:       models.SearchMode(getEnv("DRAW_MODE", string(models.SearchRandom))),
		DrawQuery:      getEnv("DRAW_QUERY", ""),
		DrawOrdered:    getBoolEnv("DRAW_ORDERED", true),
		DrawMaxWinners: getIntEnv("DRAW_MAX_WINNERS", 1),
		DrawTitle:      getEnv("DRAW_TITLE", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// NotificationsEnabled reports whether any announcement channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

func (c *Config) validate() error {
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}

	switch c.StorageBackend {
	case "memory":
	case "file":
		if c.SessionDir == "" {
			return fmt.Errorf("SESSION_DIR is required for the file storage backend")
		}
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required for the azure storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'memory', 'file' or 'azure'")
	}

	if c.MaxPermutationLength < 1 {
		return fmt.Errorf("MAX_PERMUTATION_LENGTH must be at least 1")
	}

	if c.DefaultMaxWinners < 1 {
		return fmt.Errorf("DEFAULT_MAX_WINNERS must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.DrawSchedule != "" {
		switch c.DrawMode {
		case models.SearchRandom:
		case models.SearchNumber, models.SearchWord, models.SearchMarker:
			if strings.TrimSpace(c.DrawQuery) == "" {
				return fmt.Errorf("DRAW_QUERY is required when DRAW_MODE is %s", c.DrawMode)
			}
		default:
			return fmt.Errorf("DRAW_MODE must be one of aleatorio, numero, palabra, marcador")
		}
		if c.DrawMaxWinners < 1 {
			return fmt.Errorf("DRAW_MAX_WINNERS must be at least 1")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
