package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the service.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	// Cron specs for the periodic batch jobs.
	CronSpecGeneration string
	CronSpecOverdue    string
	CronSpecDispatch   string
	CronSpecAutoStart  string

	// HorizonMonths is how far ahead task instances are pre-generated.
	HorizonMonths int
	// ReminderSendHour is the hour of day (0-23) reminders are scheduled at.
	ReminderSendHour int

	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	FromEmail    string
	FromName     string
}

// Load reads configuration from environment variables and .env file (if
// present). godotenv.Load will not override existing env variables.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Defaults: generation 02:00 daily, overdue sweep 00:30 daily,
	// dispatch every 15 minutes, auto-start 01:15 daily.
	cfg.CronSpecGeneration = envOr("CRON_SPEC_GENERATION", "0 2 * * *")
	cfg.CronSpecOverdue = envOr("CRON_SPEC_OVERDUE", "30 0 * * *")
	cfg.CronSpecDispatch = envOr("CRON_SPEC_DISPATCH", "*/15 * * * *")
	cfg.CronSpecAutoStart = envOr("CRON_SPEC_AUTO_START", "15 1 * * *")

	var err error
	cfg.HorizonMonths, err = envIntOr("GENERATION_HORIZON_MONTHS", 3)
	if err != nil {
		return nil, err
	}
	cfg.ReminderSendHour, err = envIntOr("REMINDER_SEND_HOUR", 9)
	if err != nil {
		return nil, err
	}
	if cfg.ReminderSendHour < 0 || cfg.ReminderSendHour > 23 {
		return nil, fmt.Errorf("REMINDER_SEND_HOUR must be between 0 and 23, got %d", cfg.ReminderSendHour)
	}

	cfg.SMTPServer = os.Getenv("SMTP_SERVER")
	cfg.SMTPPort, err = envIntOr("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPTLS = strings.ToLower(envOr("SMTP_TLS", "true")) == "true"
	cfg.FromEmail = envOr("FROM_EMAIL", "noreply@localhost")
	cfg.FromName = envOr("FROM_NAME", "Practice Reminder Service")

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
