package helpers

import (
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	signed, err := codec.Sign("6543a1b2c3d4e5f678901234", "rex@example.com", "Rex Owner")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := codec.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "6543a1b2c3d4e5f678901234" {
		t.Errorf("unexpected user id: %s", claims.UserID)
	}
	if claims.Email != "rex@example.com" {
		t.Errorf("unexpected email: %s", claims.Email)
	}
	if claims.Name != "Rex Owner" {
		t.Errorf("unexpected name: %s", claims.Name)
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret", -time.Minute)

	signed, err := codec.Sign("6543a1b2c3d4e5f678901234", "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := codec.Verify(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	other := NewTokenCodec("another-secret", time.Hour)

	signed, err := codec.Sign("6543a1b2c3d4e5f678901234", "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := other.Verify(signed); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for mis-signed token, got %v", err)
	}
}

func TestTokenVerifyRejectsMalformed(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Verify(raw); err != ErrInvalidToken {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestGetBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"", ""},
		{"abc123", ""},
		{"Basic abc123", ""},
	}
	for _, tc := range cases {
		if got := GetBearerToken(tc.header); got != tc.want {
			t.Errorf("GetBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestRandomTokenIsUnique(t *testing.T) {
	a, err := RandomToken()
	if err != nil {
		t.Fatalf("RandomToken: %v", err)
	}
	b, err := RandomToken()
	if err != nil {
		t.Fatalf("RandomToken: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
	if a == b {
		t.Error("two random tokens must not collide")
	}
}
