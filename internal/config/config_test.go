package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tempushr/tempus/internal/config"
)

func TestParseLifetime_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"900s", 900 * time.Second},
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1s", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.ParseLifetime(tt.in)

			if err != nil {
				t.Fatalf("ParseLifetime(%q) unexpected error: %v", tt.in, err)
			}

			if got != tt.want {
				t.Fatalf("ParseLifetime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLifetime_Invalid(t *testing.T) {
	// every rejection must be the configuration error, so callers can
	// fail fast uniformly at boot.
	for _, in := range []string{"", "15", "m", "1.5h", "15min", "-3d", "+2h", "0s", " 5m", "5 m"} {
		t.Run(in, func(t *testing.T) {
			_, err := config.ParseLifetime(in)

			if err == nil {
				t.Fatalf("ParseLifetime(%q) expected error, got nil", in)
			}

			if !errors.Is(err, config.ErrInvalidConfiguration) {
				t.Fatalf("ParseLifetime(%q) error = %v, want ErrInvalidConfiguration", in, err)
			}
		})
	}
}

func TestLoad_RejectsShortSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	t.Setenv("REFRESH_TOKEN_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := config.Load()

	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestLoad_OK(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("REFRESH_TOKEN_SECRET", "fedcba9876543210fedcba9876543210")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("REFRESH_TOKEN_TTL", "2w")

	cfg, err := config.Load()

	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v, want 15m", cfg.AccessTokenTTL)
	}

	if cfg.RefreshTokenTTL != 14*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v, want 2w", cfg.RefreshTokenTTL)
	}
}
