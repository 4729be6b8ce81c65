package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.ContextManager = (*Manager)(nil)

type identityKey struct{}

// Manager stores the authenticated identity in request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a copy of ctx carrying claims.
func (m *Manager) SetIdentityToContext(ctx context.Context, claims model.SessionClaims) context.Context {
	return context.WithValue(ctx, identityKey{}, claims)
}

// GetIdentityFromContext returns the identity attached by the authentication middleware.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.SessionClaims, bool) {
	claims, ok := ctx.Value(identityKey{}).(model.SessionClaims)
	if !ok || claims.UserID == uuid.Nil {
		return model.SessionClaims{}, false
	}
	return claims, true
}

func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := m.GetIdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
