package model

import (
	"context"

	"github.com/google/uuid"
)

// TokenManager generates and validates session tokens.
type TokenManager interface {
	GenerateSessionToken(userID uuid.UUID, email string) (string, error)
	ParseSessionToken(token string) (SessionClaims, error)
}

// SessionClaims is the identity carried by a session token.
type SessionClaims struct {
	UserID uuid.UUID
	Email  string
}

// TokenVerification is the outcome of verifying a session token.
type TokenVerification struct {
	Valid  bool
	UserID uuid.UUID
	Email  string
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Compare returns nil when password matches hash and ErrMismatchedPassword when it does not.
	Compare(ctx context.Context, hash, password string) error
}
