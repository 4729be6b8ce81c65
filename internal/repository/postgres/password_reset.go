package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.PasswordResetStore = (*PasswordResetRepository)(nil)

const passwordResetColumns = `id, user_id, token_hash, expires_at, used, created_at`

type PasswordResetRepository struct {
	db *Connection
}

func NewPasswordResetRepository(db *Connection) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset model.PasswordReset) (model.PasswordReset, error) {
	const query = `
        INSERT INTO password_resets (id, user_id, token_hash, expires_at, used, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + passwordResetColumns

	if reset.ID == uuid.Nil {
		reset.ID = uuid.New()
	}

	saved, err := scanPasswordReset(r.db.QueryRow(ctx, query,
		reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt, reset.Used, reset.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.PasswordReset{}, model.ErrDuplicate
		}
		return model.PasswordReset{}, fmt.Errorf("failed to create password reset: %w", err)
	}

	return saved, nil
}

func (r *PasswordResetRepository) FindValidByTokenHash(ctx context.Context, tokenHash []byte, now time.Time) (model.PasswordReset, error) {
	const query = `
        SELECT ` + passwordResetColumns + `
        FROM password_resets
        WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
    `

	reset, err := scanPasswordReset(r.db.QueryRow(ctx, query, tokenHash, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PasswordReset{}, model.ErrNotFound
		}
		return model.PasswordReset{}, fmt.Errorf("failed to find password reset: %w", err)
	}

	return reset, nil
}

// MarkUsed flips used only if it is still false, so exactly one caller wins.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE password_resets SET used = TRUE WHERE id = $1 AND used = FALSE`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *PasswordResetRepository) Release(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE password_resets SET used = FALSE WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release password reset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM password_resets WHERE used = TRUE OR expires_at <= $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanPasswordReset(row pgx.Row) (model.PasswordReset, error) {
	var reset model.PasswordReset
	err := row.Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.Used, &reset.CreatedAt)
	return reset, err
}
