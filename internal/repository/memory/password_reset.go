package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.PasswordResetStore = (*PasswordResetRepo)(nil)

type PasswordResetRepo struct {
	mu     sync.Mutex
	resets map[uuid.UUID]model.PasswordReset
}

func NewPasswordResetRepo() *PasswordResetRepo {
	return &PasswordResetRepo{resets: make(map[uuid.UUID]model.PasswordReset)}
}

func (r *PasswordResetRepo) Create(_ context.Context, reset model.PasswordReset) (model.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resets[reset.ID]; ok {
		return model.PasswordReset{}, model.ErrDuplicate
	}
	reset.TokenHash = bytes.Clone(reset.TokenHash)
	r.resets[reset.ID] = reset

	return reset, nil
}

func (r *PasswordResetRepo) FindValidByTokenHash(_ context.Context, tokenHash []byte, now time.Time) (model.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, reset := range r.resets {
		if bytes.Equal(reset.TokenHash, tokenHash) && reset.Valid(now) {
			return reset, nil
		}
	}
	return model.PasswordReset{}, model.ErrNotFound
}

func (r *PasswordResetRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, ok := r.resets[id]
	if !ok || reset.Used {
		return model.ErrNotFound
	}
	reset.Used = true
	r.resets[id] = reset

	return nil
}

func (r *PasswordResetRepo) Release(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, ok := r.resets[id]
	if !ok {
		return model.ErrNotFound
	}
	reset.Used = false
	r.resets[id] = reset

	return nil
}

func (r *PasswordResetRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, reset := range r.resets {
		if reset.Stale(now) {
			delete(r.resets, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports how many resets are stored.
func (r *PasswordResetRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.resets)
}
