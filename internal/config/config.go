package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	JWTSecret string

	Aligo AligoConfig

	DefaultSenderKey   string
	DefaultChannelName string

	DatabaseURL string
	AMQPURL     string
	AuditQueue  string

	Queue QueueConfig
}

type AligoConfig struct {
	APIKey      string
	UserID      string
	SenderPhone string
	BaseURL     string
	MaxRPS      float64
}

type QueueConfig struct {
	Concurrency      int
	MaxSize          int
	JobTimeout       time.Duration
	Retention        time.Duration
	SweepSpec        string
	FailOnAuditError bool
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development"
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (Config, error) {
	var badValues []string
	intVar := func(key string, fallback int) int {
		v, err := getInt(key, fallback)
		if err != nil {
			badValues = append(badValues, key)
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getDuration(key, fallback)
		if err != nil {
			badValues = append(badValues, key)
		}
		return v
	}

	rps, err := strconv.ParseFloat(getEnv("ALIGO_MAX_RPS", "0"), 64)
	if err != nil || rps < 0 {
		badValues = append(badValues, "ALIGO_MAX_RPS")
		rps = 0
	}
	failOnAudit, err := strconv.ParseBool(getEnv("QUEUE_FAIL_ON_AUDIT_ERROR", "true"))
	if err != nil {
		badValues = append(badValues, "QUEUE_FAIL_ON_AUDIT_ERROR")
		failOnAudit = true
	}

	cfg := Config{
		Port:      getEnv("PORT", "3100"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Aligo: AligoConfig{
			APIKey:      os.Getenv("ALIGO_API_KEY"),
			UserID:      os.Getenv("ALIGO_USER_ID"),
			SenderPhone: os.Getenv("ALIGO_SENDER_PHONE"),
			BaseURL:     getEnv("ALIGO_BASE_URL", "https://kakaoapi.aligo.in"),
			MaxRPS:      rps,
		},
		DefaultSenderKey:   os.Getenv("DEFAULT_SENDER_KEY"),
		DefaultChannelName: getEnv("DEFAULT_CHANNEL_NAME", "조합온"),
		DatabaseURL:        databaseURL(),
		AMQPURL:            os.Getenv("AMQP_URL"),
		AuditQueue:         getEnv("AUDIT_QUEUE", "alimtalk_logs"),
		Queue: QueueConfig{
			Concurrency:      intVar("QUEUE_CONCURRENCY", 5),
			MaxSize:          intVar("QUEUE_MAX_SIZE", 100),
			JobTimeout:       durVar("QUEUE_JOB_TIMEOUT", 5*time.Minute),
			Retention:        durVar("QUEUE_RETENTION", time.Hour),
			SweepSpec:        getEnv("QUEUE_SWEEP_SPEC", "@every 30m"),
			FailOnAuditError: failOnAudit,
		},
	}

	if len(badValues) > 0 {
		return cfg, &appErrors.ValidationError{
			Code:   "INVALID_CONFIG",
			Fields: badValues,
			Reason: "invalid configuration values",
		}
	}

	missing := cfg.missing()
	if len(missing) > 0 {
		return cfg, &appErrors.ValidationError{
			Code:   "INVALID_CONFIG",
			Fields: missing,
			Reason: "missing required environment variables",
		}
	}
	return cfg, nil
}

func (c Config) missing() []string {
	required := []struct {
		key, value string
	}{
		{"JWT_SECRET", c.JWTSecret},
		{"ALIGO_API_KEY", c.Aligo.APIKey},
		{"ALIGO_USER_ID", c.Aligo.UserID},
		{"ALIGO_SENDER_PHONE", c.Aligo.SenderPhone},
		{"DEFAULT_SENDER_KEY", c.DefaultSenderKey},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	return missing
}

// databaseURL prefers DATABASE_URL, else assembles one from the DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "johapon"),
	)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("%s: %q is not a positive integer", key, raw)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("%s: %q is not a positive duration", key, raw)
	}
	return d, nil
}
