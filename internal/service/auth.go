package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/password"
)

// dummyPassword is hashed once and compared against on logins for unknown
// emails so that both failure paths cost one bcrypt comparison.
const dummyPassword = "encuentro-dummy-password"

// AuthConfig holds the credential policy of the Auth service.
type AuthConfig struct {
	MinPasswordLength int
	ResetTokenTTL     time.Duration
	FrontendURL       string
	ResetPath         string
}

type Auth struct {
	userStore    model.UserStore
	resetStore   model.PasswordResetStore
	tokenService *TokenService
	hasher       model.Hasher
	notifier     model.ResetNotifier
	limiter      model.ResetLimiter
	config       AuthConfig
	logger       *logger.Logger
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuth creates the Auth service. limiter may be nil, in which case reset
// requests are not throttled.
func NewAuth(
	userStore model.UserStore,
	resetStore model.PasswordResetStore,
	tokenManager model.TokenManager,
	hasher model.Hasher,
	notifier model.ResetNotifier,
	limiter model.ResetLimiter,
	config AuthConfig,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		resetStore:   resetStore,
		tokenService: NewTokenService(tokenManager, logger),
		hasher:       hasher,
		notifier:     notifier,
		limiter:      limiter,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

func (a *Auth) Register(ctx context.Context, params model.RegisterParams) (model.AuthResult, error) {
	email := model.NormalizeEmail(params.Email)

	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.AuthResult{}, apiErrors.NewErrEmailIsTaken(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := a.checkPassword(params.Password); err != nil {
		return model.AuthResult{}, err
	}

	hash, err := a.hasher.Hash(ctx, params.Password)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         params.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrDuplicate) {
		a.logger.Info("Auth service: concurrent registration lost the race",
			"email", email)
		return model.AuthResult{}, apiErrors.NewErrEmailIsTaken(email)
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := a.tokenService.Issue(user)
	if err != nil {
		return model.AuthResult{}, err
	}

	a.logger.Info("Auth service: user registration completed successfully",
		"email", email,
		"user_id", user.ID)

	return model.AuthResult{User: user.Public(), Token: token}, nil
}

func (a *Auth) Login(ctx context.Context, email, pass string) (model.AuthResult, error) {
	email = model.NormalizeEmail(email)

	a.logger.Debug("Auth service: starting user login",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		a.burnComparison(ctx, pass)
		a.logger.Info("Auth service: login failed",
			"email", email)
		return model.AuthResult{}, apiErrors.NewErrInvalidCredentials()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.AuthResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if len(pass) > password.MaxLength {
		a.burnComparison(ctx, pass)
		return model.AuthResult{}, apiErrors.NewErrInvalidCredentials()
	}

	err = a.hasher.Compare(ctx, user.PasswordHash, pass)
	if errors.Is(err, model.ErrMismatchedPassword) {
		a.logger.Info("Auth service: login failed",
			"email", email)
		return model.AuthResult{}, apiErrors.NewErrInvalidCredentials()
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := a.tokenService.Issue(user)
	if err != nil {
		return model.AuthResult{}, err
	}

	a.logger.Info("Auth service: login completed successfully",
		"user_id", user.ID)

	return model.AuthResult{User: user.Public(), Token: token}, nil
}

// RequestPasswordReset issues a reset link for the email if it belongs to a
// user. The result is the same whether or not the user exists.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)

	a.logger.Debug("Auth service: password reset requested",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.allowReset(ctx, user.ID) {
		return nil
	}

	token, tokenHash, err := NewResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := a.now()
	reset, err := a.resetStore.Create(ctx, model.PasswordReset{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(a.config.ResetTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create password reset",
			"user_id", user.ID,
			"error", err.Error())
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	notification := model.PasswordResetNotification{
		Email:     user.Email,
		Link:      a.resetLink(token),
		ExpiresAt: reset.ExpiresAt,
	}
	if user.Name != nil {
		notification.Name = *user.Name
	}

	if err := a.notifier.NotifyPasswordReset(ctx, notification); err != nil {
		a.logger.Error("Auth service: failed to deliver reset link",
			"user_id", user.ID,
			"error", err.Error())
		return fmt.Errorf("failed to deliver reset link: %w", err)
	}

	a.logger.Info("Auth service: password reset issued",
		"user_id", user.ID,
		"reset_id", reset.ID,
		"expires_at", reset.ExpiresAt)

	return nil
}

func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := a.checkPassword(newPassword); err != nil {
		return err
	}

	reset, err := a.resetStore.FindValidByTokenHash(ctx, HashResetToken(token), a.now())
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: reset token rejected")
		return apiErrors.NewErrInvalidOrExpiredToken()
	}
	if err != nil {
		return fmt.Errorf("failed to find password reset: %w", err)
	}

	hash, err := a.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = a.resetStore.MarkUsed(ctx, reset.ID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: reset token consumed concurrently",
			"reset_id", reset.ID)
		return apiErrors.NewErrInvalidOrExpiredToken()
	}
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}

	_, err = a.userStore.Update(ctx, reset.UserID, model.UserUpdate{PasswordHash: &hash})
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrInvalidOrExpiredToken()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to update password",
			"user_id", reset.UserID,
			"error", err.Error())
		if releaseErr := a.resetStore.Release(ctx, reset.ID); releaseErr != nil {
			a.logger.Error("Auth service: failed to release password reset",
				"reset_id", reset.ID,
				"error", releaseErr.Error())
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password reset completed",
		"user_id", reset.UserID,
		"reset_id", reset.ID)

	return nil
}

// VerifyToken checks a session token without touching storage.
func (a *Auth) VerifyToken(_ context.Context, token string) model.TokenVerification {
	return a.tokenService.Verify(token)
}

func (a *Auth) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrUserNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	if len(currentPassword) > password.MaxLength {
		return apiErrors.NewErrInvalidCurrentPassword()
	}

	err = a.hasher.Compare(ctx, user.PasswordHash, currentPassword)
	if errors.Is(err, model.ErrMismatchedPassword) {
		a.logger.Info("Auth service: current password mismatch",
			"user_id", userID)
		return apiErrors.NewErrInvalidCurrentPassword()
	}
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}

	if err := a.checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = a.userStore.Update(ctx, userID, model.UserUpdate{PasswordHash: &hash})
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrUserNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	a.logger.Info("Auth service: password changed",
		"user_id", userID)

	return nil
}

func (a *Auth) GetUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.PublicUser{}, apiErrors.NewErrUserNotFound()
	}
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user.Public(), nil
}

// CleanupResetTokens deletes reset tokens that are expired or used.
func (a *Auth) CleanupResetTokens(ctx context.Context) (int64, error) {
	deleted, err := a.resetStore.DeleteExpired(ctx, a.now())
	if err != nil {
		a.logger.Error("Auth service: failed to clean up reset tokens",
			"error", err.Error())
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}

	a.logger.Info("Auth service: reset tokens cleaned up",
		"deleted", deleted)

	return deleted, nil
}

func (a *Auth) checkPassword(pass string) error {
	if utf8.RuneCountInString(pass) < a.config.MinPasswordLength {
		return apiErrors.NewErrWeakPassword(a.config.MinPasswordLength)
	}
	if len(pass) > password.MaxLength {
		return apiErrors.NewErrPasswordTooLong(password.MaxLength)
	}
	return nil
}

// allowReset consults the limiter. Limiter failures let the request through.
func (a *Auth) allowReset(ctx context.Context, userID uuid.UUID) bool {
	if a.limiter == nil {
		return true
	}

	allowed, err := a.limiter.Allow(ctx, userID.String())
	if err != nil {
		a.logger.Warn("Auth service: reset limiter unavailable",
			"user_id", userID,
			"error", err.Error())
		return true
	}
	if !allowed {
		a.logger.Info("Auth service: password reset throttled",
			"user_id", userID)
	}

	return allowed
}

func (a *Auth) resetLink(token string) string {
	base := strings.TrimRight(a.config.FrontendURL, "/") + "/" + strings.TrimLeft(a.config.ResetPath, "/")
	return base + "?token=" + url.QueryEscape(token)
}

func (a *Auth) burnComparison(ctx context.Context, pass string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			a.logger.Warn("Auth service: failed to prepare dummy hash",
				"error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash == "" {
		return
	}

	if len(pass) > password.MaxLength {
		pass = pass[:password.MaxLength]
	}
	_ = a.hasher.Compare(ctx, a.dummyHash, pass)
}
