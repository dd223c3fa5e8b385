package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeLocal = "local"
	AuthModeOIDC  = "oidc"

	defaultDSN  = "host=localhost user=postgres password=postgres dbname=supplychain port=5432 sslmode=disable"
	defaultCORS = "http://localhost:5173"
)

type Config struct {
	ServiceName string
	HTTPPort    string
	DatabaseDSN string
	CORSOrigins string
	LogLevel    string

	AuthMode        string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Identity provider (AUTH_MODE=oidc)
	JWKSURL            string
	Issuer             string
	ResourceID         string
	PrincipalAttribute string

	RedisAddr         string
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaGroup        string
	WorkerConcurrency int
}

// Load reads the environment, after an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "supplychain-api"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", defaultCORS),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		AuthMode:        strings.ToLower(getEnv("AUTH_MODE", AuthModeLocal)),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		JWKSURL:            getEnv("AUTH_JWKS_URL", ""),
		Issuer:             getEnv("AUTH_ISSUER", ""),
		ResourceID:         getEnv("AUTH_RESOURCE_ID", ""),
		PrincipalAttribute: getEnv("AUTH_PRINCIPAL_ATTRIBUTE", "sub"),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		KafkaBrokers:      splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "supplychain.events"),
		KafkaGroup:        getEnv("KAFKA_GROUP", "supplychain-worker"),
		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 4),
	}
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeLocal:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is not set"))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
		}
	case AuthModeOIDC:
		if c.JWKSURL == "" {
			errs = append(errs, errors.New("AUTH_JWKS_URL is required when AUTH_MODE=oidc"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

// Warn logs settings that are fine for development only.
func (c *Config) Warn(log *slog.Logger) {
	if c.DatabaseDSN == defaultDSN {
		log.Warn("DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORS {
		log.Warn("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, order status cache disabled")
	}
	if len(c.KafkaBrokers) == 0 {
		log.Info("KAFKA_BROKERS not set, domain events disabled")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
