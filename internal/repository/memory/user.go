// Package memory provides process-local stores for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.UserStore = (*UserRepo)(nil)

// UserRepo keeps users in a map keyed by id with a secondary index on email.
type UserRepo struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return r.users[id], nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

// Create inserts the user unless its normalized email is already taken.
func (r *UserRepo) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = model.NormalizeEmail(user.Email)
	if _, ok := r.byEmail[user.Email]; ok {
		return model.User{}, model.ErrDuplicate
	}
	if _, ok := r.users[user.ID]; ok {
		return model.User{}, model.ErrDuplicate
	}

	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID

	return user, nil
}

func (r *UserRepo) Update(_ context.Context, id uuid.UUID, update model.UserUpdate) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	if update.Email != nil {
		email := model.NormalizeEmail(*update.Email)
		if owner, taken := r.byEmail[email]; taken && owner != id {
			return model.User{}, model.ErrDuplicate
		}
		delete(r.byEmail, user.Email)
		user.Email = email
		r.byEmail[email] = id
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.Name != nil {
		user.Name = update.Name
	}
	user.UpdatedAt = r.now()

	r.users[id] = user

	return user, nil
}
