package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultAppName         = "BankLedger"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultTokenTTL        = time.Hour
	defaultUSDEURRate      = "0.92"
	defaultMaxAttempts     = 3
	defaultLoginPerMinute  = 5
	defaultKafkaTopic      = "transaction_completed"
	devJWTSecret           = "dev-secret-change-me"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration. Values resolve in the
// order defaults, optional YAML file (CONFIG_FILE), environment.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	LogFormat         string
	DatabaseURL       string
	RedisURL          string
	KafkaBrokers      []string
	KafkaTopic        string
	JWTSecret         string
	TokenTTL          time.Duration
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
	USDEURRate        decimal.Decimal
	LedgerMaxAttempts int
	LoginMaxPerMinute int
	SeedUsers         []SeedUser
}

// SeedUser is a demo login created at startup when absent.
type SeedUser struct {
	Email    string            `yaml:"email"`
	Name     string            `yaml:"name"`
	Password string            `yaml:"password"`
	Role     string            `yaml:"role"`
	Balances map[string]string `yaml:"balances"`
}

type configFile struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
		Port string `yaml:"port"`
	} `yaml:"app"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Exchange struct {
		USDEURRate string `yaml:"usd_eur_rate"`
	} `yaml:"exchange"`
	Seed struct {
		Users []SeedUser `yaml:"users"`
	} `yaml:"seed"`
}

// Load reads a .env file when present, then the optional YAML file, then the
// environment, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:           defaultAppName,
		AppEnv:            defaultAppEnv,
		Port:              defaultPort,
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
		KafkaTopic:        defaultKafkaTopic,
		TokenTTL:          defaultTokenTTL,
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
		USDEURRate:        decimal.RequireFromString(defaultUSDEURRate),
		LedgerMaxAttempts: defaultMaxAttempts,
		LoginMaxPerMinute: defaultLoginPerMinute,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	var err error
	if cfg.ShutdownPeriod, err = envDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = envDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if cfg.TokenTTL, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
	}
	if v := os.Getenv("USD_EUR_RATE"); v != "" {
		if cfg.USDEURRate, err = decimal.NewFromString(v); err != nil {
			return Config{}, fmt.Errorf("invalid USD_EUR_RATE: %w", err)
		}
	}
	if cfg.LedgerMaxAttempts, err = envInt("LEDGER_MAX_ATTEMPTS", cfg.LedgerMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.LoginMaxPerMinute, err = envInt("LOGIN_MAX_PER_MINUTE", cfg.LoginMaxPerMinute); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !c.USDEURRate.IsPositive() {
		return fmt.Errorf("USD_EUR_RATE must be positive, got %s", c.USDEURRate)
	}
	if c.LedgerMaxAttempts < 1 {
		return fmt.Errorf("LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.IsDevelopment() {
		if c.JWTSecret == "" {
			c.JWTSecret = devJWTSecret
		}
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.App.Name != "" {
		cfg.AppName = f.App.Name
	}
	if f.App.Env != "" {
		cfg.AppEnv = f.App.Env
	}
	if f.App.Port != "" {
		cfg.Port = f.App.Port
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Exchange.USDEURRate != "" {
		rate, err := decimal.NewFromString(f.Exchange.USDEURRate)
		if err != nil {
			return fmt.Errorf("invalid exchange.usd_eur_rate: %w", err)
		}
		cfg.USDEURRate = rate
	}
	cfg.SeedUsers = f.Seed.Users
	return nil
}

// IsDevelopment reports whether the service runs with development fallbacks.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
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

func envCSV(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
