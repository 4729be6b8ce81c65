package model

import (
	"context"

	"github.com/google/uuid"
)

type ContextManager interface {
	SetIdentityToContext(ctx context.Context, claims SessionClaims) context.Context
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
	GetIdentityFromContext(ctx context.Context) (SessionClaims, bool)
}
