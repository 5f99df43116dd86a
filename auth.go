package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const authTokenTTL = 24 * time.Hour

// AuthManager gates the gateway's upgrade endpoint with HMAC-signed bearer
// tokens. A manager built with an empty secret admits every request.
type AuthManager struct {
	secret []byte
}

// NewAuthManager creates an AuthManager from the configured shared secret.
func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

// Enabled reports whether authentication is configured.
func (a *AuthManager) Enabled() bool {
	return len(a.secret) > 0
}

// IssueToken mints a token for the given subject. Used by operators to
// hand out gateway credentials.
func (a *AuthManager) IssueToken(subject string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("authentication is not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(authTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate verifies the bearer token of an upgrade request and returns
// the token subject. Requests without a valid token are rejected when
// authentication is enabled.
func (a *AuthManager) Authenticate(r *http.Request) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}

	return claims.Subject, nil
}
