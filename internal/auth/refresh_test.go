package auth_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/tempushr/tempus/internal/auth"
)

func TestGenerateRefreshToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	raw, expiresAt, err := codec.GenerateRefreshToken()

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// 48 bytes of entropy, hex on the wire
	b, err := hex.DecodeString(raw)

	if err != nil {
		t.Fatalf("token is not hex: %v", err)
	}

	if len(b) != 48 {
		t.Fatalf("token entropy = %d bytes, want 48", len(b))
	}

	wantExpiry := time.Now().UTC().Add(7 * 24 * time.Hour)

	if expiresAt.Before(wantExpiry.Add(-time.Minute)) || expiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expiresAt = %v, want ~%v", expiresAt, wantExpiry)
	}

	// two tokens must never collide
	raw2, _, err := codec.GenerateRefreshToken()

	if err != nil {
		t.Fatalf("generate second: %v", err)
	}

	if raw == raw2 {
		t.Fatalf("two generated tokens are identical")
	}
}

func TestHashToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, testRefreshSecret, 15*time.Minute, time.Hour)

	h1 := codec.HashToken("some-token")
	h2 := codec.HashToken("some-token")

	if h1 != h2 {
		t.Fatalf("hash is not deterministic: %q vs %q", h1, h2)
	}

	if h1 == "some-token" {
		t.Fatalf("hash must not echo the input")
	}

	if codec.HashToken("other-token") == h1 {
		t.Fatalf("distinct tokens produced the same hash")
	}

	// a different refresh secret must produce a different digest
	other := auth.NewCodec(testSecret, "another-secret-another-secret-ab", 15*time.Minute, time.Hour)

	if other.HashToken("some-token") == h1 {
		t.Fatalf("hash ignores the refresh secret")
	}
}
