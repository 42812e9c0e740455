package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, built once at process start.
// Components receive it (or a slice of it) through their constructors so
// tests can substitute values without touching the environment.
type Config struct {
	Port        string
	AppURL      string
	DatabaseURL string
	RedisURL    string

	FirebaseCredentialsPath string

	StripeSecretKey     string
	StripeWebhookSecret string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	SMSBaseURL string
	SMSAPIKey  string
	SMSFrom    string

	ReminderTemplate      string
	ReminderLookaheadDays int
	ReminderCooldownHours int
	ReconcileBatchSize    int
}

// Load builds a Config from the process environment. Call godotenv.Load
// before this in main.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		AppURL:      getEnv("APP_URL", "http://localhost:8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  os.Getenv("SMTP_PORT"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),

		SMSBaseURL: os.Getenv("SMS_BASE_URL"),
		SMSAPIKey:  os.Getenv("SMS_API_KEY"),
		SMSFrom:    os.Getenv("SMS_FROM"),

		ReminderTemplate:      os.Getenv("REMINDER_TEMPLATE"),
		ReminderLookaheadDays: getEnvInt("REMINDER_LOOKAHEAD_DAYS", 14),
		ReminderCooldownHours: getEnvInt("REMINDER_COOLDOWN_HOURS", 20),
		ReconcileBatchSize:    getEnvInt("RECONCILE_BATCH_SIZE", 25),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
