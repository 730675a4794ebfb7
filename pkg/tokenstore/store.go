// Package tokenstore persists the client's bearer token across process
// restarts. Exactly one token is stored; its absence means the client is
// anonymous.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrUnknownBackend = errors.New("unknown token backend")
)

// Token is the stored bearer token with metadata.
type Token struct {
	Value     string    `json:"value" yaml:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	SavedAt   time.Time `json:"saved_at" yaml:"saved_at"`
}

// NewToken wraps value, reading the expiry from its JWT exp claim when it
// has one.
func NewToken(value string) *Token {
	return &Token{
		Value:     value,
		ExpiresAt: ExpiryOf(value),
		SavedAt:   time.Now().UTC(),
	}
}

// IsExpired reports whether the token carries an expiry that has passed.
// Tokens without a known expiry never expire locally; the remote decides.
func (t *Token) IsExpired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// ExpiryOf returns the exp claim of a JWT without verifying its signature, or
// the zero time when value is not a JWT or has no exp claim.
func ExpiryOf(value string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Store defines durable token storage.
type Store interface {
	// Get returns the stored token or ErrTokenNotFound.
	Get(ctx context.Context) (*Token, error)
	// Set replaces the stored token.
	Set(ctx context.Context, tok *Token) error
	// Delete removes the stored token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
	// Close releases backend resources. The token itself survives.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the store for backend. path is ignored by the memory backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
