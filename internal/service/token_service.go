package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

// resetTokenBytes is the amount of entropy in a reset token.
const resetTokenBytes = 32

// TokenService issues and verifies session tokens and mints password reset
// tokens. Reset tokens are only persisted as hashes.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

// Issue creates a session token for the user.
func (s *TokenService) Issue(user model.User) (string, error) {
	token, err := s.manager.GenerateSessionToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}

// Verify checks a session token. It reports an invalid token instead of
// returning an error and never panics.
func (s *TokenService) Verify(token string) (verification model.TokenVerification) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Token service: recovered from panic while verifying token",
				"panic", fmt.Sprint(r))
			verification = model.TokenVerification{}
		}
	}()

	claims, err := s.manager.ParseSessionToken(token)
	if err != nil {
		s.logger.Debug("Token service: session token rejected",
			"error", err.Error())
		return model.TokenVerification{}
	}
	if claims.UserID == uuid.Nil {
		return model.TokenVerification{}
	}

	return model.TokenVerification{Valid: true, UserID: claims.UserID, Email: claims.Email}
}

// NewResetToken returns a random reset token and the hash to persist for it.
func NewResetToken() (string, []byte, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	token := hex.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
