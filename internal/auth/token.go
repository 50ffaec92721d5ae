// Package auth issues and verifies the observer credential carried on
// every request. Tokens are HS256 JWTs; business logic never reads the
// credential from ambient storage, it always receives verified claims
// through the request context.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid observer token")

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer   string `env:"DAYLIGHT_TOKEN_ISSUER" envDefault:"daylight"`
	Secret   string `env:"DAYLIGHT_TOKEN_SECRET"`
	TTLHours int    `env:"DAYLIGHT_TOKEN_TTL_HOURS" envDefault:"12"`
}

// Config defines how observer tokens are issued and verified.
type Config struct {
	Issuer string
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// Claims captures the verified observer identity.
type Claims struct {
	ObserverID string
	Name       string
}

// observerClaims is the internal claims type used for JWT parsing.
type observerClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// LoadConfigFromEnv reads token configuration from the environment.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("DAYLIGHT_TOKEN_SECRET is required")
	}
	if raw.TTLHours < 1 {
		return Config{}, fmt.Errorf("DAYLIGHT_TOKEN_TTL_HOURS must be at least 1")
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer: strings.TrimSpace(raw.Issuer),
		Secret: []byte(secret),
		TTL:    time.Duration(raw.TTLHours) * time.Hour,
		Now:    now,
	}, nil
}

// Issue mints a signed observer token.
func Issue(cfg Config, observerID, name string) (string, error) {
	if observerID == "" {
		return "", fmt.Errorf("observer id is required")
	}
	now := cfg.Now()
	claims := observerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   observerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
		Name: name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the observer identity.
func Verify(cfg Config, raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims observerClaims
	_, err := jwt.ParseWithClaims(
		raw,
		&claims,
		func(t *jwt.Token) (any, error) { return cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ObserverID: claims.Subject, Name: claims.Name}, nil
}
