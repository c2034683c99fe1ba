package config

import (
	"os"
	"strconv"
	"time"

	"campushub/internal/cache"
	"campushub/internal/database"
	"campushub/internal/external"
	"campushub/internal/messaging"
	"campushub/internal/search"
)

// Config holds the full application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Rate limiting at the HTTP boundary. Counters live in Redis so the
	// limit holds across server instances.
	RateLimitPerMinute int

	// Checkout confirmation polling
	CheckoutPollInterval time.Duration
	CheckoutMaxAttempts  int

	// Reminder scheduling
	ReminderOffset           time.Duration
	ReminderBaseBackoff      time.Duration
	ReminderMaxAttempts      int
	ReminderDispatchInterval time.Duration
	ReminderDispatchBatch    int

	Database      database.Config
	Redis         cache.Config
	NATS          messaging.Config
	Elasticsearch search.Config
	Settlement    external.SettlementConfig
	Mail          external.MailConfig
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		CheckoutPollInterval: time.Duration(getEnvInt("CHECKOUT_POLL_INTERVAL_SEC", 3)) * time.Second,
		CheckoutMaxAttempts:  getEnvInt("CHECKOUT_MAX_ATTEMPTS", 20),

		ReminderOffset:           time.Duration(getEnvInt("REMINDER_OFFSET_HOURS", 24)) * time.Hour,
		ReminderBaseBackoff:      time.Duration(getEnvInt("REMINDER_BASE_BACKOFF_SEC", 60)) * time.Second,
		ReminderMaxAttempts:      getEnvInt("REMINDER_MAX_ATTEMPTS", 3),
		ReminderDispatchInterval: time.Duration(getEnvInt("REMINDER_DISPATCH_INTERVAL_SEC", 30)) * time.Second,
		ReminderDispatchBatch:    getEnvInt("REMINDER_DISPATCH_BATCH", 100),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "campushub"),
			Password:           getEnv("DB_PASSWORD", "campushub"),
			DBName:             getEnv("DB_NAME", "campushub"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "campushub"),
			ClientID:  getEnv("NATS_CLIENT_ID", "campushub-api"),
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_EVENTS_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Settlement: external.SettlementConfig{
			BaseURL:            getEnv("SETTLEMENT_BASE_URL", "https://api.payments.example.com"),
			APIKey:             getEnv("SETTLEMENT_API_KEY", ""),
			PlatformFeePercent: getEnvFloat("SETTLEMENT_PLATFORM_FEE_PERCENT", 5.0),
			OnboardingReturn:   getEnv("SETTLEMENT_ONBOARDING_RETURN_URL", "https://campushub.example.com/organiser/settlement"),
			Timeout:            time.Duration(getEnvInt("SETTLEMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Mail: external.MailConfig{
			BaseURL: getEnv("MAIL_BASE_URL", "https://api.mail.example.com"),
			APIKey:  getEnv("MAIL_API_KEY", ""),
			From:    getEnv("MAIL_FROM", "events@campushub.example.com"),
			Timeout: time.Duration(getEnvInt("MAIL_TIMEOUT_SEC", 15)) * time.Second,
		},
	}
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable value or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
