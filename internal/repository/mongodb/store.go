// Package mongodb implements the user and password reset stores on MongoDB.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtroode/encuentro-server/internal/model"
)

const (
	usersCollection          = "users"
	passwordResetsCollection = "password_resets"
)

var _ model.Pinger = (*Store)(nil)

// Store owns the client and the database the repositories work on.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri, verifies it and ensures the indexes the
// repositories rely on.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

// EnsureIndexes creates the unique email index that closes the registration
// race and the lookup indexes for reset tokens.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = s.db.Collection(passwordResetsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("password_resets_token_hash_key"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("password_resets_expires_at_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create password reset indexes: %w", err)
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() *UserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) PasswordResets() *PasswordResetRepository {
	return NewPasswordResetRepository(s.db)
}
