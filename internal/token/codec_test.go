package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret, "torque")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Issue(Claims{
		UserID:       7,
		Nickname:     "jdoe",
		Role:         "user",
		FirstName:    "Jane",
		LastName:     "Doe",
		FullName:     "Jane Doe",
		TokenVersion: 3,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Nickname != "jdoe" || claims.Role != "user" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
	if claims.TokenVersion != 3 {
		t.Fatalf("expected token version 3, got %d", claims.TokenVersion)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("tokens must not carry an expiry claim")
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti claim")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %q, got %v", raw, err)
		}
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec(strings.Repeat("x", 32), "torque")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	raw, err := other.Issue(Claims{UserID: 1, Role: "admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	codec := newTestCodec(t)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := codec.Verify(unsigned); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for alg=none, got %v", err)
	}
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec("short", "torque"); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
