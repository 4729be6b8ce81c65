package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	httpctx "github.com/dtroode/encuentro-server/internal/api/http/context"
	"github.com/dtroode/encuentro-server/internal/mocks"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/testutil"
)

var (
	errDatabase = errors.New("database unavailable")
	testUserID  = uuid.MustParse("9b2f0c3e-6a54-4b8e-9d38-2f6c3a1b7e01")
	testUser    = model.PublicUser{
		ID:        testUserID,
		Email:     "ana@example.com",
		CreatedAt: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
)

type handlerCase struct {
	name       string
	body       string
	setupMock  func(s *mocks.AuthService)
	wantStatus int
	wantBody   string
}

func newTestAuth(t *testing.T) (*Auth, *mocks.AuthService) {
	t.Helper()
	svc := mocks.NewAuthService(t)
	return NewAuth(svc, httpctx.NewManager(), testutil.MakeNoopLogger()), svc
}

func runCases(t *testing.T, cases []handlerCase, serve func(h *Auth) http.HandlerFunc, authenticated bool) {
	t.Helper()

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, svc := newTestAuth(t)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if authenticated {
				ctx := httpctx.NewManager().SetIdentityToContext(req.Context(), model.SessionClaims{UserID: testUserID, Email: testUser.Email})
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()

			serve(h).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	name := "Ana"
	cases := []handlerCase{
		{
			name: "success",
			body: `{"email":"Ana@Example.com","password":"secret1","name":"Ana"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Register", mock.Anything, model.RegisterParams{Email: "Ana@Example.com", Password: "secret1", Name: &name}).
					Return(model.AuthResult{User: testUser, Token: "jwt"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody: `{"message":"user registered successfully","token":"jwt",
				"user":{"id":"9b2f0c3e-6a54-4b8e-9d38-2f6c3a1b7e01","email":"ana@example.com","createdAt":"2026-01-10T09:00:00Z"}}`,
		},
		{
			name:       "empty body",
			body:       ``,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"request body is empty"}`,
		},
		{
			name:       "malformed json",
			body:       `{"email":`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request body"}`,
		},
		{
			name:       "missing password",
			body:       `{"email":"ana@example.com"}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"password is required"}`,
		},
		{
			name:       "invalid email",
			body:       `{"email":"not-an-email","password":"secret1"}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email must be a valid email address"}`,
		},
		{
			name: "duplicate email",
			body: `{"email":"ana@example.com","password":"secret1"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Register", mock.Anything, mock.Anything).
					Return(model.AuthResult{}, apiErrors.NewErrEmailIsTaken("ana@example.com")).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email ana@example.com is already registered"}`,
		},
		{
			name: "weak password",
			body: `{"email":"ana@example.com","password":"123"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Register", mock.Anything, mock.Anything).
					Return(model.AuthResult{}, apiErrors.NewErrWeakPassword(6)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"password must be at least 6 characters long"}`,
		},
		{
			name: "infrastructure failure",
			body: `{"email":"ana@example.com","password":"secret1"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Register", mock.Anything, mock.Anything).
					Return(model.AuthResult{}, errDatabase).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.Register }, false)
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	cases := []handlerCase{
		{
			name: "success",
			body: `{"email":"ana@example.com","password":"secret1"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Login", mock.Anything, "ana@example.com", "secret1").
					Return(model.AuthResult{User: testUser, Token: "jwt"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing email",
			body:       `{"password":"secret1"}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email is required"}`,
		},
		{
			name: "invalid credentials",
			body: `{"email":"ana@example.com","password":"wrong"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("Login", mock.Anything, "ana@example.com", "wrong").
					Return(model.AuthResult{}, apiErrors.NewErrInvalidCredentials()).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"invalid email or password"}`,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.Login }, false)
}

func TestAuth_ForgotPassword(t *testing.T) {
	t.Parallel()

	cases := []handlerCase{
		{
			name: "known or unknown email",
			body: `{"email":"someone@example.com"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("RequestPasswordReset", mock.Anything, "someone@example.com").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"if the email is registered, a link to reset the password has been sent"}`,
		},
		{
			name:       "missing email",
			body:       `{}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email is required"}`,
		},
		{
			name: "infrastructure failure",
			body: `{"email":"someone@example.com"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("RequestPasswordReset", mock.Anything, "someone@example.com").Return(errDatabase).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.ForgotPassword }, false)
}

func TestAuth_ResetPassword(t *testing.T) {
	t.Parallel()

	cases := []handlerCase{
		{
			name: "success",
			body: `{"token":"abc","password":"newsecret"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("ResetPassword", mock.Anything, "abc", "newsecret").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"password updated successfully"}`,
		},
		{
			name:       "missing token",
			body:       `{"password":"newsecret"}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"token is required"}`,
		},
		{
			name: "expired token",
			body: `{"token":"abc","password":"newsecret"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("ResetPassword", mock.Anything, "abc", "newsecret").Return(apiErrors.NewErrInvalidOrExpiredToken()).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"reset link is invalid or has expired"}`,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.ResetPassword }, false)
}

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()

	cases := []handlerCase{
		{
			name: "success",
			body: `{"currentPassword":"secret1","newPassword":"secret2"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("UpdatePassword", mock.Anything, testUserID, "secret1", "secret2").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"password updated successfully"}`,
		},
		{
			name:       "missing new password",
			body:       `{"currentPassword":"secret1"}`,
			setupMock:  func(s *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"newPassword is required"}`,
		},
		{
			name: "wrong current password",
			body: `{"currentPassword":"nope","newPassword":"secret2"}`,
			setupMock: func(s *mocks.AuthService) {
				s.On("UpdatePassword", mock.Anything, testUserID, "nope", "secret2").Return(apiErrors.NewErrInvalidCurrentPassword()).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"current password is incorrect"}`,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.ChangePassword }, true)

	t.Run("unauthenticated", func(t *testing.T) {
		h, _ := newTestAuth(t)
		rr := httptest.NewRecorder()
		h.ChangePassword(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuth_Me(t *testing.T) {
	t.Parallel()

	cases := []handlerCase{
		{
			name: "success",
			setupMock: func(s *mocks.AuthService) {
				s.On("GetUser", mock.Anything, testUserID).Return(testUser, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"user":{"id":"9b2f0c3e-6a54-4b8e-9d38-2f6c3a1b7e01","email":"ana@example.com","createdAt":"2026-01-10T09:00:00Z"}}`,
		},
		{
			name: "user gone",
			setupMock: func(s *mocks.AuthService) {
				s.On("GetUser", mock.Anything, testUserID).Return(model.PublicUser{}, apiErrors.NewErrUserNotFound()).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"user not found"}`,
		},
	}

	runCases(t, cases, func(h *Auth) http.HandlerFunc { return h.Me }, true)

	t.Run("unauthenticated", func(t *testing.T) {
		ctxMgr := mocks.NewContextManager(t)
		ctxMgr.On("GetUserIDFromContext", mock.Anything).Return(uuid.Nil, false).Once()
		h := NewAuth(mocks.NewAuthService(t), ctxMgr, testutil.MakeNoopLogger())

		rr := httptest.NewRecorder()
		h.Me(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"authorization token is missing"}`, rr.Body.String())
	})
}

func TestAuth_Session(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		h, _ := newTestAuth(t)
		rr := httptest.NewRecorder()
		h.Session(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"authenticated":false}`, rr.Body.String())
	})

	authed := func(r *http.Request) *http.Request {
		ctx := httpctx.NewManager().SetIdentityToContext(r.Context(), model.SessionClaims{UserID: testUserID})
		return r.WithContext(ctx)
	}

	t.Run("authenticated", func(t *testing.T) {
		h, svc := newTestAuth(t)
		svc.On("GetUser", mock.Anything, testUserID).Return(testUser, nil).Once()

		rr := httptest.NewRecorder()
		h.Session(rr, authed(httptest.NewRequest(http.MethodGet, "/", nil)))
		require.Equal(t, http.StatusOK, rr.Code)

		var body sessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Authenticated)
		require.NotNil(t, body.User)
		assert.Equal(t, testUserID, body.User.ID)
	})

	t.Run("user gone", func(t *testing.T) {
		h, svc := newTestAuth(t)
		svc.On("GetUser", mock.Anything, testUserID).Return(model.PublicUser{}, apiErrors.NewErrUserNotFound()).Once()

		rr := httptest.NewRecorder()
		h.Session(rr, authed(httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"authenticated":false}`, rr.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		h, svc := newTestAuth(t)
		svc.On("GetUser", mock.Anything, testUserID).Return(model.PublicUser{}, errDatabase).Once()

		rr := httptest.NewRecorder()
		h.Session(rr, authed(httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHealth_Check(t *testing.T) {
	t.Parallel()

	t.Run("no store", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHealth(nil, testutil.MakeNoopLogger()).Check(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("store reachable", func(t *testing.T) {
		pinger := mocks.NewPinger(t)
		pinger.On("Ping", mock.Anything).Return(nil).Once()

		rr := httptest.NewRecorder()
		NewHealth(pinger, testutil.MakeNoopLogger()).Check(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("store down", func(t *testing.T) {
		pinger := mocks.NewPinger(t)
		pinger.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return(errDatabase).Once()

		rr := httptest.NewRecorder()
		NewHealth(pinger, testutil.MakeNoopLogger()).Check(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"status":"unavailable"}`, rr.Body.String())
	})
}
