package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/mocks"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/testutil"
)

type authMocks struct {
	users    *mocks.UserStore
	resets   *mocks.PasswordResetStore
	tokens   *mocks.TokenManager
	hasher   *mocks.Hasher
	notifier *mocks.ResetNotifier
	limiter  *mocks.ResetLimiter
}

func newMockedAuth(t *testing.T) (*Auth, authMocks) {
	m := authMocks{
		users:    mocks.NewUserStore(t),
		resets:   mocks.NewPasswordResetStore(t),
		tokens:   mocks.NewTokenManager(t),
		hasher:   mocks.NewHasher(t),
		notifier: mocks.NewResetNotifier(t),
		limiter:  mocks.NewResetLimiter(t),
	}
	a := NewAuth(m.users, m.resets, m.tokens, m.hasher, m.notifier, m.limiter, testAuthConfig, testutil.MakeNoopLogger())
	return a, m
}

var errDatabase = errors.New("database error")

func TestAuth_Register(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(m authMocks)
		wantKind  apiErrors.Kind
		wantInfra bool
	}{
		{
			name: "success",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
				m.hasher.On("Hash", mock.Anything, "secret1").Return("hashed", nil)
				m.users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
					return u.Email == "alice@x.com" && u.PasswordHash == "hashed" && u.ID != uuid.Nil
				})).Return(func(_ context.Context, u model.User) (model.User, error) { return u, nil })
				m.tokens.On("GenerateSessionToken", mock.Anything, "alice@x.com").Return("session", nil)
			},
		},
		{
			name: "existing user",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{ID: uuid.New()}, nil)
			},
			wantKind: apiErrors.KindDuplicateEmail,
		},
		{
			name: "store reports duplicate",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
				m.hasher.On("Hash", mock.Anything, "secret1").Return("hashed", nil)
				m.users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrDuplicate)
			},
			wantKind: apiErrors.KindDuplicateEmail,
		},
		{
			name: "lookup fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, errDatabase)
			},
			wantInfra: true,
		},
		{
			name: "hash fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
				m.hasher.On("Hash", mock.Anything, "secret1").Return("", context.Canceled)
			},
			wantInfra: true,
		},
		{
			name: "create fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
				m.hasher.On("Hash", mock.Anything, "secret1").Return("hashed", nil)
				m.users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, errDatabase)
			},
			wantInfra: true,
		},
		{
			name: "token fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
				m.hasher.On("Hash", mock.Anything, "secret1").Return("hashed", nil)
				m.users.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, u model.User) (model.User, error) { return u, nil })
				m.tokens.On("GenerateSessionToken", mock.Anything, "alice@x.com").Return("", errors.New("sign failed"))
			},
			wantInfra: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAuth(t)
			tt.setup(m)

			res, err := a.Register(context.Background(), model.RegisterParams{Email: "Alice@X.com", Password: "secret1"})
			switch {
			case tt.wantKind != "":
				requireKind(t, err, tt.wantKind)
			case tt.wantInfra:
				require.Error(t, err)
				_, isAPIErr := apiErrors.As(err)
				assert.False(t, isAPIErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, "session", res.Token)
				assert.Equal(t, "alice@x.com", res.User.Email)
			}
		})
	}
}

func TestAuth_Register_DuplicateCheckedBeforePassword(t *testing.T) {
	a, m := newMockedAuth(t)
	m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{ID: uuid.New()}, nil)

	_, err := a.Register(context.Background(), model.RegisterParams{Email: "alice@x.com", Password: "1"})
	requireKind(t, err, apiErrors.KindDuplicateEmail)
}

func TestAuth_Register_PasswordTooLong(t *testing.T) {
	a, m := newMockedAuth(t)
	m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	_, err := a.Register(context.Background(), model.RegisterParams{Email: "alice@x.com", Password: string(long)})
	requireKind(t, err, apiErrors.KindWeakPassword)
}

func TestAuth_Login_UnknownEmailBurnsComparison(t *testing.T) {
	a, m := newMockedAuth(t)
	m.users.On("GetByEmail", mock.Anything, "ghost@x.com").Return(model.User{}, model.ErrNotFound)
	m.hasher.On("Hash", mock.Anything, dummyPassword).Return("dummy-hash", nil).Once()
	m.hasher.On("Compare", mock.Anything, "dummy-hash", "secret1").Return(model.ErrMismatchedPassword).Twice()

	for i := 0; i < 2; i++ {
		_, err := a.Login(context.Background(), "ghost@x.com", "secret1")
		requireKind(t, err, apiErrors.KindInvalidCredentials)
	}
}

func TestAuth_Login_Errors(t *testing.T) {
	userID := uuid.New()
	user := model.User{ID: userID, Email: "alice@x.com", PasswordHash: "hashed"}

	tests := []struct {
		name     string
		setup    func(m authMocks)
		wantKind apiErrors.Kind
	}{
		{
			name: "wrong password",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.hasher.On("Compare", mock.Anything, "hashed", "secret1").Return(model.ErrMismatchedPassword)
			},
			wantKind: apiErrors.KindInvalidCredentials,
		},
		{
			name: "store fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, errDatabase)
			},
		},
		{
			name: "compare fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.hasher.On("Compare", mock.Anything, "hashed", "secret1").Return(context.DeadlineExceeded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAuth(t)
			tt.setup(m)

			_, err := a.Login(context.Background(), "alice@x.com", "secret1")
			if tt.wantKind != "" {
				requireKind(t, err, tt.wantKind)
				return
			}
			require.Error(t, err)
			_, isAPIErr := apiErrors.As(err)
			assert.False(t, isAPIErr)
		})
	}
}

func TestAuth_RequestPasswordReset(t *testing.T) {
	userID := uuid.New()
	name := "Alice"
	user := model.User{ID: userID, Email: "alice@x.com", Name: &name}

	tests := []struct {
		name    string
		setup   func(m authMocks)
		wantErr bool
	}{
		{
			name: "issues and notifies",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.limiter.On("Allow", mock.Anything, userID.String()).Return(true, nil)
				m.resets.On("Create", mock.Anything, mock.MatchedBy(func(r model.PasswordReset) bool {
					return r.UserID == userID && len(r.TokenHash) == 32 && !r.Used
				})).Return(func(_ context.Context, r model.PasswordReset) (model.PasswordReset, error) { return r, nil })
				m.notifier.On("NotifyPasswordReset", mock.Anything, mock.MatchedBy(func(n model.PasswordResetNotification) bool {
					return n.Email == "alice@x.com" && n.Name == "Alice" && len(n.Link) > 0
				})).Return(nil)
			},
		},
		{
			name: "unknown email",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, model.ErrNotFound)
			},
		},
		{
			name: "throttled",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.limiter.On("Allow", mock.Anything, userID.String()).Return(false, nil)
			},
		},
		{
			name: "limiter unavailable",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.limiter.On("Allow", mock.Anything, userID.String()).Return(false, errors.New("redis down"))
				m.resets.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, r model.PasswordReset) (model.PasswordReset, error) { return r, nil })
				m.notifier.On("NotifyPasswordReset", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "lookup fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(model.User{}, errDatabase)
			},
			wantErr: true,
		},
		{
			name: "persist fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.limiter.On("Allow", mock.Anything, userID.String()).Return(true, nil)
				m.resets.On("Create", mock.Anything, mock.Anything).Return(model.PasswordReset{}, errDatabase)
			},
			wantErr: true,
		},
		{
			name: "delivery fails",
			setup: func(m authMocks) {
				m.users.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)
				m.limiter.On("Allow", mock.Anything, userID.String()).Return(true, nil)
				m.resets.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, r model.PasswordReset) (model.PasswordReset, error) { return r, nil })
				m.notifier.On("NotifyPasswordReset", mock.Anything, mock.Anything).Return(errors.New("queue down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAuth(t)
			tt.setup(m)

			err := a.RequestPasswordReset(context.Background(), "alice@x.com")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuth_ResetPassword_Errors(t *testing.T) {
	resetID := uuid.New()
	userID := uuid.New()
	reset := model.PasswordReset{ID: resetID, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name      string
		setup     func(m authMocks)
		wantKind  apiErrors.Kind
		wantInfra bool
	}{
		{
			name: "consumed concurrently",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, HashResetToken("tok"), mock.Anything).Return(reset, nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("hashed", nil)
				m.resets.On("MarkUsed", mock.Anything, resetID).Return(model.ErrNotFound)
			},
			wantKind: apiErrors.KindInvalidOrExpiredToken,
		},
		{
			name: "lookup fails",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, mock.Anything, mock.Anything).Return(model.PasswordReset{}, errDatabase)
			},
			wantInfra: true,
		},
		{
			name: "mark used fails",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, mock.Anything, mock.Anything).Return(reset, nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("hashed", nil)
				m.resets.On("MarkUsed", mock.Anything, resetID).Return(errDatabase)
			},
			wantInfra: true,
		},
		{
			name: "update fails",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, mock.Anything, mock.Anything).Return(reset, nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("hashed", nil)
				m.resets.On("MarkUsed", mock.Anything, resetID).Return(nil)
				m.users.On("Update", mock.Anything, userID, mock.Anything).Return(model.User{}, errDatabase)
				m.resets.On("Release", mock.Anything, resetID).Return(nil).Once()
			},
			wantInfra: true,
		},
		{
			name: "update and release fail",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, mock.Anything, mock.Anything).Return(reset, nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("hashed", nil)
				m.resets.On("MarkUsed", mock.Anything, resetID).Return(nil)
				m.users.On("Update", mock.Anything, userID, mock.Anything).Return(model.User{}, errDatabase)
				m.resets.On("Release", mock.Anything, resetID).Return(errDatabase).Once()
			},
			wantInfra: true,
		},
		{
			name: "success",
			setup: func(m authMocks) {
				m.resets.On("FindValidByTokenHash", mock.Anything, mock.Anything, mock.Anything).Return(reset, nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("hashed", nil)
				m.resets.On("MarkUsed", mock.Anything, resetID).Return(nil)
				m.users.On("Update", mock.Anything, userID, mock.MatchedBy(func(u model.UserUpdate) bool {
					return u.PasswordHash != nil && *u.PasswordHash == "hashed" && u.Email == nil
				})).Return(model.User{ID: userID}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAuth(t)
			tt.setup(m)

			err := a.ResetPassword(context.Background(), "tok", "newsecret")
			switch {
			case tt.wantKind != "":
				requireKind(t, err, tt.wantKind)
			case tt.wantInfra:
				require.Error(t, err)
				_, isAPIErr := apiErrors.As(err)
				assert.False(t, isAPIErr)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestAuth_UpdatePassword_Errors(t *testing.T) {
	userID := uuid.New()
	user := model.User{ID: userID, PasswordHash: "hashed"}

	tests := []struct {
		name     string
		newPass  string
		setup    func(m authMocks)
		wantKind apiErrors.Kind
	}{
		{
			name:    "user not found",
			newPass: "newsecret",
			setup: func(m authMocks) {
				m.users.On("GetByID", mock.Anything, userID).Return(model.User{}, model.ErrNotFound)
			},
			wantKind: apiErrors.KindUserNotFound,
		},
		{
			name:    "wrong current password checked before weak new password",
			newPass: "abc",
			setup: func(m authMocks) {
				m.users.On("GetByID", mock.Anything, userID).Return(user, nil)
				m.hasher.On("Compare", mock.Anything, "hashed", "current").Return(model.ErrMismatchedPassword)
			},
			wantKind: apiErrors.KindInvalidCredentials,
		},
		{
			name:    "user vanished before update",
			newPass: "newsecret",
			setup: func(m authMocks) {
				m.users.On("GetByID", mock.Anything, userID).Return(user, nil)
				m.hasher.On("Compare", mock.Anything, "hashed", "current").Return(nil)
				m.hasher.On("Hash", mock.Anything, "newsecret").Return("new-hash", nil)
				m.users.On("Update", mock.Anything, userID, mock.Anything).Return(model.User{}, model.ErrNotFound)
			},
			wantKind: apiErrors.KindUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAuth(t)
			tt.setup(m)

			err := a.UpdatePassword(context.Background(), userID, "current", tt.newPass)
			requireKind(t, err, tt.wantKind)
		})
	}
}

func TestAuth_GetUser(t *testing.T) {
	a, m := newMockedAuth(t)
	userID := uuid.New()
	m.users.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID, Email: "alice@x.com", PasswordHash: "hashed"}, nil).Once()
	m.users.On("GetByID", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound).Once()

	user, err := a.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.PublicUser{ID: userID, Email: "alice@x.com"}, user)

	_, err = a.GetUser(context.Background(), uuid.New())
	requireKind(t, err, apiErrors.KindUserNotFound)
}

func TestAuth_CleanupResetTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		a, m := newMockedAuth(t)
		a.now = func() time.Time { return now }
		m.resets.On("DeleteExpired", mock.Anything, now).Return(int64(3), nil)

		deleted, err := a.CleanupResetTokens(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})

	t.Run("store fails", func(t *testing.T) {
		a, m := newMockedAuth(t)
		a.now = func() time.Time { return now }
		m.resets.On("DeleteExpired", mock.Anything, now).Return(int64(0), errDatabase)

		_, err := a.CleanupResetTokens(context.Background())
		assert.ErrorIs(t, err, errDatabase)
	})
}
