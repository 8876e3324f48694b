// Package csrf issues and checks the tokens embedded in the console's
// own forms.
package csrf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "admin-console"

// ErrInvalidToken is returned for a missing, malformed, expired or
// foreign token
var ErrInvalidToken = errors.New("invalid CSRF token")

// Manager signs form tokens with HS256
type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewManager creates a token manager. An empty secret is replaced with a
// random one, which invalidates tokens across restarts.
func NewManager(secret string, lifetime time.Duration) (*Manager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Manager{secret: key, lifetime: lifetime, now: time.Now}, nil
}

// Issue returns a fresh signed token.
func (m *Manager) Issue() (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate checks signature, issuer and expiry.
func (m *Manager) Validate(token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
