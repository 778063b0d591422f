// Package setup issues the signed tokens embedded in Day 0 welcome emails.
// A client follows their setup link, the token proves which client record
// they own, and completing the flow marks them eligible for scheduling.
package setup

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTTL = 7 * 24 * time.Hour

// Tokens signs and verifies client setup tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token signer. A zero ttl selects the seven-day
// default; a client who has not opened their welcome email within a week
// asks their artist to resend it.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed setup token for the client.
func (t *Tokens) Generate(clientID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign setup token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the client ID.
func (t *Tokens) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse setup token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("setup token missing subject")
	}
	return claims.Subject, nil
}
