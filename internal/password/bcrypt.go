// Package password hashes user secrets with bcrypt on a bounded pool of goroutines.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/dtroode/encuentro-server/internal/model"
)

// MaxLength is the longest password bcrypt can hash without truncation.
const MaxLength = 72

var _ model.Hasher = (*Bcrypt)(nil)

// ErrTooLong is returned by Hash for passwords bcrypt would silently truncate.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Bcrypt hashes passwords, running at most a fixed number of hash
// computations concurrently.
type Bcrypt struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcrypt creates a hasher with the given cost. Concurrency is bounded by GOMAXPROCS.
func NewBcrypt(cost int) *Bcrypt {
	return NewBcryptWithWorkers(cost, runtime.GOMAXPROCS(0))
}

// NewBcryptWithWorkers creates a hasher that runs at most workers hash computations at once.
func NewBcryptWithWorkers(cost, workers int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers < 1 {
		workers = 1
	}
	return &Bcrypt{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash returns the bcrypt hash of password.
func (b *Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > MaxLength {
		return "", ErrTooLong
	}

	var hash []byte
	err := b.run(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), b.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Compare checks password against hash. It returns model.ErrMismatchedPassword on mismatch.
func (b *Bcrypt) Compare(ctx context.Context, hash, password string) error {
	err := b.run(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrMismatchedPassword
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}

	return nil
}

func (b *Bcrypt) run(ctx context.Context, fn func() error) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.sem.Release(1)

	return fn()
}
