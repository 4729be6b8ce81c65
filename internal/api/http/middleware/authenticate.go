package middleware

import (
	"context"
	"net/http"
	"strings"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/api/http/response"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

const bearerPrefix = "bearer "

// TokenVerifier checks session tokens.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) model.TokenVerification
}

// Authenticate validates bearer tokens and injects the identity into the request context.
type Authenticate struct {
	verifier       TokenVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier TokenVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Required rejects requests without a valid session token.
func (m *Authenticate) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, authErr := m.authenticate(r)
		if authErr != nil {
			m.logger.Debug("Authenticate middleware: request rejected",
				"path", r.URL.Path,
				"reason", authErr.Message)
			response.Error(w, authErr)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the identity when a valid token is present and lets
// every request through.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, authErr := m.authenticate(r)
		if authErr != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Authenticate) authenticate(r *http.Request) (context.Context, *apiErrors.APIError) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return nil, apiErrors.NewErrMissingAuthorizationToken()
	}

	verification := m.verifier.VerifyToken(r.Context(), tokenString)
	if !verification.Valid {
		return nil, apiErrors.NewErrInvalidAuthorizationToken()
	}

	claims := model.SessionClaims{
		UserID: verification.UserID,
		Email:  verification.Email,
	}
	return m.contextManager.SetIdentityToContext(r.Context(), claims), nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
