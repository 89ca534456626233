package httpapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "viewer",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestVerifySessionToken(t *testing.T) {
	secret := "s3cret"

	valid := signToken(t, secret, time.Now().Add(time.Hour))
	if err := verifySessionToken(secret, valid); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}

	if err := verifySessionToken(secret, ""); err == nil {
		t.Error("empty token accepted")
	}

	wrongKey := signToken(t, "other-secret", time.Now().Add(time.Hour))
	if err := verifySessionToken(secret, wrongKey); err == nil {
		t.Error("token signed with wrong secret accepted")
	}

	expired := signToken(t, secret, time.Now().Add(-time.Hour))
	if err := verifySessionToken(secret, expired); err == nil {
		t.Error("expired token accepted")
	}

	if err := verifySessionToken(secret, "not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}
