package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.PasswordResetStore = (*PasswordResetRepository)(nil)

type passwordResetDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	TokenHash []byte    `bson:"token_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
	Used      bool      `bson:"used"`
	CreatedAt time.Time `bson:"created_at"`
}

func newPasswordResetDocument(reset model.PasswordReset) passwordResetDocument {
	return passwordResetDocument{
		ID:        reset.ID.String(),
		UserID:    reset.UserID.String(),
		TokenHash: reset.TokenHash,
		ExpiresAt: reset.ExpiresAt.UTC(),
		Used:      reset.Used,
		CreatedAt: reset.CreatedAt.UTC(),
	}
}

func (d passwordResetDocument) toModel() (model.PasswordReset, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.PasswordReset{}, fmt.Errorf("failed to parse password reset id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return model.PasswordReset{}, fmt.Errorf("failed to parse user id %q: %w", d.UserID, err)
	}
	return model.PasswordReset{
		ID:        id,
		UserID:    userID,
		TokenHash: d.TokenHash,
		ExpiresAt: d.ExpiresAt,
		Used:      d.Used,
		CreatedAt: d.CreatedAt,
	}, nil
}

type PasswordResetRepository struct {
	col *mongo.Collection
}

func NewPasswordResetRepository(db *mongo.Database) *PasswordResetRepository {
	return &PasswordResetRepository{col: db.Collection(passwordResetsCollection)}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset model.PasswordReset) (model.PasswordReset, error) {
	if reset.ID == uuid.Nil {
		reset.ID = uuid.New()
	}

	doc := newPasswordResetDocument(reset)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.PasswordReset{}, model.ErrDuplicate
		}
		return model.PasswordReset{}, fmt.Errorf("failed to create password reset: %w", err)
	}

	return doc.toModel()
}

func (r *PasswordResetRepository) FindValidByTokenHash(ctx context.Context, tokenHash []byte, now time.Time) (model.PasswordReset, error) {
	filter := bson.M{
		"token_hash": tokenHash,
		"used":       false,
		"expires_at": bson.M{"$gt": now.UTC()},
	}

	var doc passwordResetDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.PasswordReset{}, model.ErrNotFound
		}
		return model.PasswordReset{}, fmt.Errorf("failed to find password reset: %w", err)
	}

	return doc.toModel()
}

// MarkUsed matches on used=false so only one concurrent caller succeeds.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id.String(), "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *PasswordResetRepository) Release(ctx context.Context, id uuid.UUID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"used": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to release password reset: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"used": true},
		bson.M{"expires_at": bson.M{"$lte": now.UTC()}},
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}

	return res.DeletedCount, nil
}
