package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordResetStore persists password reset requests.
type PasswordResetStore interface {
	Create(ctx context.Context, reset PasswordReset) (PasswordReset, error)
	// FindValidByTokenHash returns the reset only if it is unused and not expired at now.
	FindValidByTokenHash(ctx context.Context, tokenHash []byte, now time.Time) (PasswordReset, error)
	// MarkUsed consumes the reset. It returns ErrNotFound when the reset is
	// missing or was already consumed.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	// Release returns a consumed reset to the unused state after a failed
	// password write. It returns ErrNotFound when the reset is missing.
	Release(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes resets that are expired or used and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordReset describes one outstanding request to reset a user's password.
type PasswordReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash []byte
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Valid reports whether the reset can still be consumed at now.
func (r PasswordReset) Valid(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

// Stale reports whether the reset is eligible for cleanup at now.
func (r PasswordReset) Stale(now time.Time) bool {
	return r.Used || !now.Before(r.ExpiresAt)
}

// PasswordResetNotification is handed to the delivery channel once a reset is issued.
type PasswordResetNotification struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResetNotifier delivers reset links to users through an external channel.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, notification PasswordResetNotification) error
}

// ResetLimiter throttles reset requests per key.
type ResetLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
