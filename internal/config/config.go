package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Assignment   AssignmentConfig
	Sweeper      SweeperConfig
	Complaint    ComplaintConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// AssignmentConfig controls the assignment request protocol.
type AssignmentConfig struct {
	// PushRequestTTLHours bounds how long an admin-initiated request
	// stays answerable before it expires.
	PushRequestTTLHours int
	// AutoAssignThreshold is the minimum recommendation confidence for
	// assigning without human review.
	AutoAssignThreshold float64
}

// SweeperConfig controls the background SLA/escalation sweeps.
type SweeperConfig struct {
	IntervalSeconds int
	LockTTLSeconds  int
	Enabled         bool
}

// ComplaintConfig holds complaint lifecycle defaults.
type ComplaintConfig struct {
	ReopenWindowDays int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	autoAssign, err := strconv.ParseFloat(getEnv("ASSIGNMENT_AUTO_ASSIGN_THRESHOLD", "0.6"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ASSIGNMENT_AUTO_ASSIGN_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Assignment: AssignmentConfig{
			PushRequestTTLHours: getEnvAsInt("ASSIGNMENT_PUSH_REQUEST_TTL_HOURS", 24),
			AutoAssignThreshold: autoAssign,
		},
		Sweeper: SweeperConfig{
			IntervalSeconds: getEnvAsInt("SWEEPER_INTERVAL_SECONDS", 300),
			LockTTLSeconds:  getEnvAsInt("SWEEPER_LOCK_TTL_SECONDS", 240),
			Enabled:         getEnvAsBool("SWEEPER_ENABLED", true),
		},
		Complaint: ComplaintConfig{
			ReopenWindowDays: getEnvAsInt("COMPLAINT_REOPEN_WINDOW_DAYS", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PushRequestTTL returns the admin push request TTL duration.
func (a AssignmentConfig) PushRequestTTL() time.Duration {
	if a.PushRequestTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.PushRequestTTLHours) * time.Hour
}

// Interval returns the sweep interval duration.
func (s SweeperConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LockTTL returns the sweep lock duration.
func (s SweeperConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 4 * time.Minute
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
