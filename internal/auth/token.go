package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

// TokenConfig is fixed at startup.
type TokenConfig struct {
	Secret    string
	Algorithm string
	Lifetime  time.Duration
}

// TokenManager issues and verifies stateless HMAC-signed access tokens whose
// subject is the user's email.
type TokenManager struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager validates cfg and returns a manager pinned to its algorithm.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.Lifetime)
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.Algorithm)
	}

	m := &TokenManager{
		secret:   []byte(cfg.Secret),
		method:   method,
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lifetime returns how long issued tokens stay valid.
func (m *TokenManager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue signs a token for subject that expires after the configured lifetime.
func (m *TokenManager) Issue(subject string) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.lifetime)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, the pinned algorithm and the expiry, and
// returns the subject. Every failure is ErrInvalidCredentials.
func (m *TokenManager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse access token: %w: %w", apperrors.ErrInvalidCredentials, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("access token has no subject: %w", apperrors.ErrInvalidCredentials)
	}
	return claims.Subject, nil
}
