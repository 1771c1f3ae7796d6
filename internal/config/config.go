package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// raised when a required setting is missing or malformed; fatal at boot.
var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// auth settings, validated at start so token issuance can never
	// fail on configuration later.
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshSecret   string
	RefreshTokenTTL time.Duration

	AllowedOrigins []string

	OTLPEndpoint string

	// optional bootstrap admin
	AdminEmail    string
	AdminPassword string
	AdminNombre   string
}

func Load() (Config, error) {
	cfg := Config{
		Env:           getEnv("APP_ENV", "dev"),
		Port:          getEnvInt("PORT", 8080),
		DBURL:         buildDBURL(),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		OTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminNombre:   getEnv("ADMIN_NOMBRE", "Administrator"),
	}

	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	accessTTL, err := ParseLifetime(getEnv("ACCESS_TOKEN_TTL", "15m"))

	if err != nil {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.AccessTokenTTL = accessTTL

	refreshTTL, err := ParseLifetime(getEnv("REFRESH_TOKEN_TTL", "7d"))

	if err != nil {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL: %w", err)
	}
	cfg.RefreshTokenTTL = refreshTTL

	err = cfg.validateSecrets()

	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// secrets shorter than 32 bytes make HS256 brute-forceable; refuse to start.
const minSecretBytes = 32

func (c Config) validateSecrets() error {
	if len(c.JWTSecret) < minSecretBytes {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d bytes", ErrInvalidConfiguration, minSecretBytes)
	}

	if len(c.RefreshSecret) < minSecretBytes {
		return fmt.Errorf("%w: REFRESH_TOKEN_SECRET must be at least %d bytes", ErrInvalidConfiguration, minSecretBytes)
	}

	return nil
}

// ParseLifetime parses a token lifetime string of the form <integer><unit>,
// unit one of s, m, h, d, w. Anything else is rejected here, at boot,
// rather than at token issuance time.
func ParseLifetime(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: lifetime %q must be <integer><unit>", ErrInvalidConfiguration, s)
	}

	numPart := s[:len(s)-1]
	unit := s[len(s)-1]

	for _, r := range numPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: lifetime %q must start with a positive integer", ErrInvalidConfiguration, s)
		}
	}

	n, err := strconv.Atoi(numPart)

	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: lifetime %q must start with a positive integer", ErrInvalidConfiguration, s)
	}

	var factor time.Duration

	switch unit {
	case 's':
		factor = time.Second
	case 'm':
		factor = time.Minute
	case 'h':
		factor = time.Hour
	case 'd':
		factor = 24 * time.Hour
	case 'w':
		factor = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: lifetime %q has unknown unit %q", ErrInvalidConfiguration, s, string(unit))
	}

	return time.Duration(n) * factor, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "tempus")
	pass := getEnv("DB_PASSWORD", "tempus")
	name := getEnv("DB_NAME", "tempus")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
