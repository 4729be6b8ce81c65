package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (User, error)
}

// User represents a stored user with authentication material.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	Name         *string
}

// PublicUser is the user view safe to hand to clients.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips authentication material from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

var emailCaser = cases.Lower(language.Und)

// NormalizeEmail returns the canonical form used as the unique user key.
func NormalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}
