// Package config loads the service configuration from environment variables
// and an optional .env / config.env file. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"belgeno/internal/core/numerator"
)

// Config is the complete service configuration.
type Config struct {
	App         AppConfig
	Log         LogConfig
	DB          DBConfig
	JWT         JWTConfig
	Idempotency IdempotencyConfig
	Numbering   NumberingConfig
	Veriban     VeribanConfig
}

// AppConfig holds process level settings.
type AppConfig struct {
	Env     string // development, staging, production
	Port    int
	Version string
}

// IsDevelopment reports whether the service runs in development mode.
func (c AppConfig) IsDevelopment() bool { return c.Env == "development" }

// Addr is the HTTP listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// DBConfig holds PostgreSQL settings.
type DBConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// IdempotencyConfig controls request replay.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// NumberingConfig holds the generator tunables.
type NumberingConfig struct {
	MaxAttempts         int
	CollisionDelay      time.Duration
	CollisionDelayEvery int
	CounterRetries      int
	CounterBackoff      time.Duration
	ScanLimit           int
}

// Numerator converts to the generator config.
func (c NumberingConfig) Numerator() numerator.Config {
	return numerator.Config{
		MaxAttempts:         c.MaxAttempts,
		CollisionDelay:      c.CollisionDelay,
		CollisionDelayEvery: c.CollisionDelayEvery,
		CounterRetries:      c.CounterRetries,
		CounterBackoff:      c.CounterBackoff,
		ScanLimit:           c.ScanLimit,
	}.WithDefaults()
}

// VeribanConfig holds the Veriban e-invoice account.
type VeribanConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	Rate     float64
	Burst    int
	// Profile filters the invoices of veriban_invoice (empty keeps all).
	Profile string
	// ArchiveProfile filters the invoices of earchive_invoice.
	ArchiveProfile string
}

// Enabled reports whether a Veriban account is configured.
func (c VeribanConfig) Enabled() bool { return c.URL != "" && c.Username != "" }

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required outside development")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	v.SetDefault("JWT_ISSUER", "belgeno")
	v.SetDefault("JWT_TTL", 15*time.Minute)

	v.SetDefault("IDEMPOTENCY_ENABLED", false)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)

	d := numerator.DefaultConfig()
	v.SetDefault("NUMBERING_MAX_ATTEMPTS", d.MaxAttempts)
	v.SetDefault("NUMBERING_COLLISION_DELAY", d.CollisionDelay)
	v.SetDefault("NUMBERING_COLLISION_DELAY_EVERY", d.CollisionDelayEvery)
	v.SetDefault("NUMBERING_COUNTER_RETRIES", d.CounterRetries)
	v.SetDefault("NUMBERING_BACKOFF", d.CounterBackoff)
	v.SetDefault("NUMBERING_SCAN_LIMIT", d.ScanLimit)

	v.SetDefault("VERIBAN_TIMEOUT", 30*time.Second)
	v.SetDefault("VERIBAN_RATE", 2.0)
	v.SetDefault("VERIBAN_BURST", 4)
	v.SetDefault("VERIBAN_ARCHIVE_PROFILE", "EARSIVFATURA")
}

// Load reads the configuration. Files named .env or config.env are looked up in
// the working directory, ./config and the given extra paths; missing files are ignored.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	for _, name := range []string{".env", "config"} {
		v.SetConfigName(name)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", name, err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:     strings.ToLower(v.GetString("APP_ENV")),
			Port:    v.GetInt("APP_PORT"),
			Version: v.GetString("APP_VERSION"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			MinConns: v.GetInt32("DB_MIN_CONNS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("IDEMPOTENCY_ENABLED"),
			TTL:     v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Numbering: NumberingConfig{
			MaxAttempts:         v.GetInt("NUMBERING_MAX_ATTEMPTS"),
			CollisionDelay:      v.GetDuration("NUMBERING_COLLISION_DELAY"),
			CollisionDelayEvery: v.GetInt("NUMBERING_COLLISION_DELAY_EVERY"),
			CounterRetries:      v.GetInt("NUMBERING_COUNTER_RETRIES"),
			CounterBackoff:      v.GetDuration("NUMBERING_BACKOFF"),
			ScanLimit:           v.GetInt("NUMBERING_SCAN_LIMIT"),
		},
		Veriban: VeribanConfig{
			URL:            v.GetString("VERIBAN_URL"),
			Username:       v.GetString("VERIBAN_USERNAME"),
			Password:       v.GetString("VERIBAN_PASSWORD"),
			Timeout:        v.GetDuration("VERIBAN_TIMEOUT"),
			Rate:           v.GetFloat64("VERIBAN_RATE"),
			Burst:          v.GetInt("VERIBAN_BURST"),
			Profile:        v.GetString("VERIBAN_PROFILE"),
			ArchiveProfile: v.GetString("VERIBAN_ARCHIVE_PROFILE"),
		},
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.DB.URL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWT.Secret == "" && !c.App.IsDevelopment() {
		errs = append(errs, ErrMissingJWTSecret)
	}
	return errors.Join(errs...)
}
