package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "LOG_FORMAT", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "JWT_SECRET",
		"USD_EUR_RATE", "LEDGER_MAX_ATTEMPTS", "CONFIG_FILE", "SHUTDOWN_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT",
		"IDEMPOTENCY_TTL_SECONDS", "IDEMPOTENCY_TTL", "TOKEN_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.USDEURRate.String() != "0.92" {
		t.Fatalf("expected default rate 0.92, got %s", cfg.USDEURRate)
	}
	if cfg.JWTSecret == "" || cfg.LedgerMaxAttempts != 3 || cfg.Address() != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_ProductionRequiresDependencies(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "short")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for short JWT secret")
	}

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
app:
  port: "9000"
exchange:
  usd_eur_rate: "0.95"
seed:
  users:
    - email: alice@example.com
      name: Alice
      password: password123
      balances:
        USD: "100.00"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("expected env port to win, got %s", cfg.Port)
	}
	if cfg.USDEURRate.String() != "0.95" {
		t.Fatalf("expected file rate, got %s", cfg.USDEURRate)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if len(cfg.SeedUsers) != 1 || cfg.SeedUsers[0].Balances["USD"] != "100.00" {
		t.Fatalf("unexpected seed users %+v", cfg.SeedUsers)
	}
}

func TestLoad_RejectsBadRate(t *testing.T) {
	clearEnv(t)
	t.Setenv("USD_EUR_RATE", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}
