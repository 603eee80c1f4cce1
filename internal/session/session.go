// Package session signs and verifies the opaque session identifier handed to browsers.
//
// The identifier is an HS256 JWT whose subject is the Spotify user id. It carries no token material:
// the credential itself stays in the store, so deleting it there ends the session.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/grantshandy/starify/internal/shared"
)

const (
	// CookieName is the cookie carrying the session identifier.
	CookieName = "starify_session"

	issuer       = "starify"
	minSecretLen = 32
)

// Issuer mints and verifies session identifiers.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an [Issuer]. secret must be at least 32 bytes.
func NewIssuer(secret []byte, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("%w: session secret must be at least %d bytes", shared.ErrInvalidConfig, minSecretLen)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: session ttl must be positive", shared.ErrInvalidConfig)
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, ttl: ttl, now: now}, nil
}

// DecodeSecret decodes a base64 session secret. An empty value yields a random secret that lives as long
// as the process; the second return reports whether that happened.
func DecodeSecret(encoded string) ([]byte, bool, error) {
	if encoded == "" {
		secret := make([]byte, minSecretLen)
		if _, err := rand.Read(secret); err != nil {
			return nil, false, fmt.Errorf("failed to generate session secret: %w", err)
		}
		return secret, true, nil
	}

	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("%w: session_secret is not base64: %v", shared.ErrInvalidConfig, err)
	}
	return secret, false, nil
}

// TTL is the lifetime of issued identifiers.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs an identifier for userID and returns it with its expiry.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty user id", shared.ErrMissingArgument)
	}

	now := i.now()
	expires := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies token and returns its user id. Any failure wraps [shared.ErrSessionNotFound].
func (i *Issuer) Parse(token string) (string, error) {
	if token == "" {
		return "", shared.ErrSessionNotFound
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrSessionNotFound, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: session has no subject", shared.ErrSessionNotFound)
	}
	return claims.Subject, nil
}
