package httpapi

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims are the token claims required to join a protected
// session.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// verifySessionToken validates an HS256 session token against the
// configured secret. Only called when a secret is configured.
func verifySessionToken(secret, tokenString string) error {
	if tokenString == "" {
		return fmt.Errorf("missing token")
	}

	parser := jwt.NewParser(jwt.WithExpirationRequired())
	token, err := parser.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
