package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Payment  PaymentConfig
	Strike   StrikeConfig
	Sweep    SweepConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PaymentConfig holds payment gateway configuration.
type PaymentConfig struct {
	GatewayTimeout time.Duration // per-call bound on gateway operations
	MaxAttempts    int           // retry budget for transient gateway failures
	WebhookSecret  string        // HMAC secret for processor event signatures
	DisputeWindow  time.Duration // window after capture during which a rider may dispute
}

// StrikeConfig holds strike and suspension policy configuration.
type StrikeConfig struct {
	ExpiryWindow       time.Duration // how long a strike counts toward escalation
	TemporaryThreshold int           // active strikes triggering a temporary suspension
	PermanentThreshold int           // active strikes triggering a permanent suspension
	TemporaryDuration  time.Duration
	QueueDrainLimit    int // candidates issued per drain run
}

// SweepConfig holds background job scheduling configuration.
type SweepConfig struct {
	StrikeExpiryInterval   time.Duration
	SuspensionLiftInterval time.Duration
	HoldSettleInterval     time.Duration
	QueueDrainInterval     time.Duration
	BatchSize              int
}

// AdminConfig holds the admin surface configuration.
type AdminConfig struct {
	Token string // shared token for the admin API; empty disables it
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tripguard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "tripguard"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Payment: PaymentConfig{
			GatewayTimeout: getDurationEnv("PAYMENT_GATEWAY_TIMEOUT", 5*time.Second),
			MaxAttempts:    getIntEnv("PAYMENT_MAX_ATTEMPTS", 3),
			WebhookSecret:  getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			DisputeWindow:  getDurationEnv("PAYMENT_DISPUTE_WINDOW", 72*time.Hour),
		},
		Strike: StrikeConfig{
			ExpiryWindow:       getDurationEnv("STRIKE_EXPIRY_WINDOW", 30*24*time.Hour),
			TemporaryThreshold: getIntEnv("STRIKE_TEMP_THRESHOLD", 2),
			PermanentThreshold: getIntEnv("STRIKE_PERM_THRESHOLD", 3),
			TemporaryDuration:  getDurationEnv("SUSPENSION_TEMP_DURATION", 7*24*time.Hour),
			QueueDrainLimit:    getIntEnv("STRIKE_QUEUE_DRAIN_LIMIT", 100),
		},
		Sweep: SweepConfig{
			StrikeExpiryInterval:   getDurationEnv("SWEEP_STRIKE_EXPIRY_INTERVAL", 24*time.Hour),
			SuspensionLiftInterval: getDurationEnv("SWEEP_SUSPENSION_LIFT_INTERVAL", time.Hour),
			HoldSettleInterval:     getDurationEnv("SWEEP_HOLD_SETTLE_INTERVAL", time.Hour),
			QueueDrainInterval:     getDurationEnv("SWEEP_QUEUE_DRAIN_INTERVAL", 30*time.Second),
			BatchSize:              getIntEnv("SWEEP_BATCH_SIZE", 500),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
	}
}

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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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
