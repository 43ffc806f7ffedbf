package config

import (
	"errors"
	"testing"
	"time"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ALIGO_API_KEY", "key")
	t.Setenv("ALIGO_USER_ID", "user")
	t.Setenv("ALIGO_SENDER_PHONE", "0212345678")
	t.Setenv("DEFAULT_SENDER_KEY", "sk")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"PORT", "QUEUE_CONCURRENCY", "QUEUE_MAX_SIZE", "QUEUE_JOB_TIMEOUT",
		"QUEUE_RETENTION", "QUEUE_SWEEP_SPEC", "QUEUE_FAIL_ON_AUDIT_ERROR", "DATABASE_URL", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME", "DEFAULT_CHANNEL_NAME"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "3100" {
		t.Errorf("expected port 3100, got %s", cfg.Port)
	}
	q := cfg.Queue
	if q.Concurrency != 5 || q.MaxSize != 100 {
		t.Errorf("unexpected pool sizing: %+v", q)
	}
	if q.JobTimeout != 5*time.Minute || q.Retention != time.Hour {
		t.Errorf("unexpected timings: %+v", q)
	}
	if q.SweepSpec != "@every 30m" {
		t.Errorf("unexpected sweep spec %q", q.SweepSpec)
	}
	if !q.FailOnAuditError {
		t.Error("audit failures should fail jobs by default")
	}
	if cfg.DefaultChannelName != "조합온" {
		t.Errorf("unexpected channel name %q", cfg.DefaultChannelName)
	}
	if cfg.DatabaseURL != "postgres://postgres:@localhost:5432/johapon?sslmode=disable" {
		t.Errorf("expected assembled database url, got %q", cfg.DatabaseURL)
	}
}

func TestFromEnvMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALIGO_API_KEY", "")

	_, err := FromEnv()
	var vErr *appErrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Fields) != 2 || vErr.Fields[0] != "JWT_SECRET" || vErr.Fields[1] != "ALIGO_API_KEY" {
		t.Errorf("unexpected missing fields: %v", vErr.Fields)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("QUEUE_CONCURRENCY", "2")
	t.Setenv("QUEUE_JOB_TIMEOUT", "90s")
	t.Setenv("QUEUE_FAIL_ON_AUDIT_ERROR", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Queue.Concurrency != 2 || cfg.Queue.JobTimeout != 90*time.Second {
		t.Errorf("overrides not applied: %+v", cfg.Queue)
	}
	if cfg.Queue.FailOnAuditError {
		t.Error("expected audit downgrade to be disabled")
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/x" {
		t.Errorf("unexpected database url %q", cfg.DatabaseURL)
	}
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("QUEUE_MAX_SIZE", "-3")
	t.Setenv("QUEUE_RETENTION", "soon")

	cfg, err := FromEnv()
	var vErr *appErrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Code != "INVALID_CONFIG" {
		t.Errorf("unexpected code %s", vErr.Code)
	}
	if cfg.Queue.MaxSize != 100 || cfg.Queue.Retention != time.Hour {
		t.Errorf("bad values should fall back to defaults: %+v", cfg.Queue)
	}
}
