package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_EXPIRY", "1")
	return NewAuthService()
}

func TestLoginRoundTrip(t *testing.T) {
	a := newTestAuthService(t)

	token, err := a.Login("ana@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ana@example.com" {
		t.Fatalf("subject lost: %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatalf("claims must carry an author id")
	}
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	a := newTestAuthService(t)
	for _, email := range []string{"", "not-an-email", "a@", "@example.com"} {
		if _, err := a.Login(email); err == nil {
			t.Fatalf("expected rejection for %q", email)
		}
	}
}

func TestValidateTokenRejectsForgeries(t *testing.T) {
	a := newTestAuthService(t)

	if _, err := a.ValidateToken("garbage"); err == nil {
		t.Fatalf("garbage token should fail")
	}

	// Token signed with a different secret.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   "mallory@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := a.ValidateToken(signed); err == nil {
		t.Fatalf("foreign-signed token should fail")
	}

	// Expired token under the right secret.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   "ana@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	signed, err = expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := a.ValidateToken(signed); err == nil {
		t.Fatalf("expired token should fail")
	}
}
