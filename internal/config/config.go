package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Email      EmailConfig
	WhatsApp   WhatsAppConfig
	Escalation EscalationConfig
	Cron       CronConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
	Algorithm          string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	Enabled   bool
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// WhatsAppConfig holds WhatsApp messaging configuration
type WhatsAppConfig struct {
	Enabled    bool
	Provider   string // "twilio", "console" (for development)
	APIBaseURL string
	TwilioSID  string
	TwilioAuth string
	TwilioFrom string
	// DefaultCountryCode is prefixed to numbers given without one
	DefaultCountryCode string
}

// EscalationConfig holds escalation thresholds, sweep bounds and tier recipients
type EscalationConfig struct {
	SupportThresholdMinutes int
	ManagerThresholdMinutes int
	CEOStaleMinutes         int
	BatchSize               int
	Concurrency             int
	SweepDeadlineSeconds    int
	NotifyTimeoutSeconds    int
	RecipientsFile          string
	Tiers                   map[string]TierRecipients
	AdminInquiryEmails      []string
}

// TierRecipients lists who is notified when a query reaches a tier
type TierRecipients struct {
	Emails   []string `yaml:"emails"`
	WhatsApp []string `yaml:"whatsapp"`
}

// CronConfig holds the scheduler authentication settings
type CronConfig struct {
	Secret          string
	SchedulerHeader string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Vendorhub API"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvAsBool("DEBUG", false),
			Port:    getEnv("PORT", "8000"),
			Host:    getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./vendorhub.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", "your-secret-key-change-in-production"),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60),
			Algorithm:          getEnv("ALGORITHM", "HS256"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"*"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:   getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("EMAIL_FROM", "support@vendorhub.local"),
			FromName:  getEnv("EMAIL_FROM_NAME", "Vendorhub Support"),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:    getEnvAsBool("WHATSAPP_ENABLED", false),
			Provider:   getEnv("WHATSAPP_PROVIDER", "console"),
			APIBaseURL: getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),
			TwilioSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuth: getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),

			DefaultCountryCode: getEnv("WHATSAPP_DEFAULT_COUNTRY_CODE", "91"),
		},
		Escalation: EscalationConfig{
			SupportThresholdMinutes: getEnvAsInt("ESCALATION_SUPPORT_MINUTES", 120),
			ManagerThresholdMinutes: getEnvAsInt("ESCALATION_MANAGER_MINUTES", 240),
			CEOStaleMinutes:         getEnvAsInt("ESCALATION_CEO_STALE_MINUTES", 1440),
			BatchSize:               getEnvAsInt("ESCALATION_BATCH_SIZE", 100),
			Concurrency:             getEnvAsInt("ESCALATION_CONCURRENCY", 4),
			SweepDeadlineSeconds:    getEnvAsInt("ESCALATION_SWEEP_DEADLINE_SECONDS", 50),
			NotifyTimeoutSeconds:    getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 15),
			RecipientsFile:          getEnv("ESCALATION_RECIPIENTS_FILE", ""),
			Tiers: map[string]TierRecipients{
				"CUSTOMER_SUPPORT": {
					Emails:   getEnvAsSlice("SUPPORT_EMAILS", nil),
					WhatsApp: getEnvAsSlice("SUPPORT_WHATSAPP", nil),
				},
				"MANAGER": {
					Emails:   getEnvAsSlice("MANAGER_EMAILS", nil),
					WhatsApp: getEnvAsSlice("MANAGER_WHATSAPP", nil),
				},
				"CEO": {
					Emails:   getEnvAsSlice("CEO_EMAILS", nil),
					WhatsApp: getEnvAsSlice("CEO_WHATSAPP", nil),
				},
			},
			AdminInquiryEmails: getEnvAsSlice("ADMIN_INQUIRY_EMAILS", nil),
		},
		Cron: CronConfig{
			Secret:          getEnv("CRON_SECRET", ""),
			SchedulerHeader: getEnv("CRON_SCHEDULER_HEADER", "X-Vercel-Cron"),
		},
	}

	if config.Escalation.RecipientsFile != "" {
		if err := loadRecipientsFile(config.Escalation.RecipientsFile, &config.Escalation); err != nil {
			return nil, err
		}
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	esc := cfg.Escalation
	if esc.SupportThresholdMinutes <= 0 || esc.ManagerThresholdMinutes <= 0 || esc.CEOStaleMinutes <= 0 {
		return fmt.Errorf("escalation thresholds must be greater than 0")
	}
	if esc.BatchSize <= 0 {
		return fmt.Errorf("ESCALATION_BATCH_SIZE must be greater than 0")
	}
	if esc.Concurrency <= 0 {
		return fmt.Errorf("ESCALATION_CONCURRENCY must be greater than 0")
	}
	if esc.SweepDeadlineSeconds <= 0 {
		return fmt.Errorf("ESCALATION_SWEEP_DEADLINE_SECONDS must be greater than 0")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "dbname=")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}

// SweepDeadline is the soft time budget of one sweep invocation
func (e *EscalationConfig) SweepDeadline() time.Duration {
	return time.Duration(e.SweepDeadlineSeconds) * time.Second
}

// NotifyTimeout bounds a single outbound notification
func (e *EscalationConfig) NotifyTimeout() time.Duration {
	return time.Duration(e.NotifyTimeoutSeconds) * time.Second
}
