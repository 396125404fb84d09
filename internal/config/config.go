package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the app, sourced from the
// environment (optionally seeded from a .env file by the caller).
type Config struct {
	AppEnv   string
	LogLevel string
	LogJSON  bool

	HTTPListenAddr   string
	PublicBasePath   string
	MetricsNamespace string

	// Local store. When DatabaseURL is set the Postgres driver is used,
	// otherwise SQLitePath.
	DatabaseURL string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	// Astrologer backend API.
	APIBaseURL      string
	APITimeout      time.Duration
	ProfileCacheTTL time.Duration

	OTPCodeLength  int
	ResendCooldown time.Duration
}

// Load reads configuration from environment variables, applying defaults
// suitable for local development.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogJSON:          getBool("LOG_JSON", false),
		HTTPListenAddr:   getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBasePath:   getEnv("PUBLIC_BASE_PATH", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "astro_partner"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "astro-partner.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getBool("REDIS_TLS", false),
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:5000/api/astrologer"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = getDuration("PROFILE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OTPCodeLength, err = getInt("OTP_CODE_LENGTH", 6); err != nil {
		return nil, err
	}
	if cfg.OTPCodeLength != 4 && cfg.OTPCodeLength != 6 {
		return nil, fmt.Errorf("OTP_CODE_LENGTH must be 4 or 6, got %d", cfg.OTPCodeLength)
	}
	if cfg.ResendCooldown, err = getDuration("OTP_RESEND_COOLDOWN", 60*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
