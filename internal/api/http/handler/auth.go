package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/api/http/response"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

const (
	messageRegistered      = "user registered successfully"
	messageLoggedIn        = "logged in successfully"
	messageResetRequested  = "if the email is registered, a link to reset the password has been sent"
	messagePasswordUpdated = "password updated successfully"
)

// AuthService defines the authentication operations exposed over HTTP.
type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.AuthResult, error)
	Login(ctx context.Context, email, password string) (model.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error)
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type authResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
	Token   string           `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User model.PublicUser `json:"user"`
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *model.PublicUser `json:"user,omitempty"`
}

// Auth handles REST endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	validate       *validator.Validate
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		validate:       newValidator(),
		logger:         logger,
	}
}

// Register creates an account and returns a session token.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := h.decode(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	h.logger.Debug("Auth handler: processing registration request",
		"email", req.Email)

	result, err := h.authService.Register(r.Context(), model.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.handleError(w, "registration", err)
		return
	}

	h.logger.Info("Auth handler: registration completed",
		"user_id", result.User.ID)

	response.JSON(w, http.StatusCreated, authResponse{
		Message: messageRegistered,
		User:    result.User,
		Token:   result.Token,
	})
}

// Login exchanges credentials for a session token.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := h.decode(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, "login", err)
		return
	}

	h.logger.Info("Auth handler: login completed",
		"user_id", result.User.ID)

	response.JSON(w, http.StatusOK, authResponse{
		Message: messageLoggedIn,
		User:    result.User,
		Token:   result.Token,
	})
}

// ForgotPassword answers identically whether or not the email is registered.
func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if apiErr := h.decode(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.handleError(w, "password reset request", err)
		return
	}

	response.JSON(w, http.StatusOK, messageResponse{Message: messageResetRequested})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if apiErr := h.decode(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.handleError(w, "password reset", err)
		return
	}

	response.JSON(w, http.StatusOK, messageResponse{Message: messagePasswordUpdated})
}

// Me returns the authenticated user.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, apiErrors.NewErrMissingAuthorizationToken())
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		h.handleError(w, "get user", err)
		return
	}

	response.JSON(w, http.StatusOK, userResponse{User: user})
}

// ChangePassword replaces the password of the authenticated user.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, apiErrors.NewErrMissingAuthorizationToken())
		return
	}

	var req changePasswordRequest
	if apiErr := h.decode(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleError(w, "password change", err)
		return
	}

	h.logger.Info("Auth handler: password changed",
		"user_id", userID)

	response.JSON(w, http.StatusOK, messageResponse{Message: messagePasswordUpdated})
}

// Session reports whether the request carries a usable session.
func (h *Auth) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		response.JSON(w, http.StatusOK, sessionResponse{})
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if apiErrors.IsKind(err, apiErrors.KindUserNotFound) {
			response.JSON(w, http.StatusOK, sessionResponse{})
			return
		}
		h.handleError(w, "session lookup", err)
		return
	}

	response.JSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: &user})
}
