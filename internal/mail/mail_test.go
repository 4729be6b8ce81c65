package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/mocks"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/testutil"
)

var testNotification = model.PasswordResetNotification{
	Email:     "maria@example.com",
	Name:      "María",
	Link:      "http://localhost:5173/nueva-contrasena?token=abc",
	ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
}

func TestRenderPasswordReset(t *testing.T) {
	tests := []struct {
		name         string
		notification model.PasswordResetNotification
		wantGreeting string
	}{
		{name: "with name", notification: testNotification, wantGreeting: "Hola María,"},
		{
			name: "without name",
			notification: model.PasswordResetNotification{
				Email: "x@example.com",
				Link:  "http://localhost/reset?token=1",
			},
			wantGreeting: "Hola,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail, err := RenderPasswordReset("noreply@example.com", tt.notification)
			require.NoError(t, err)

			assert.Equal(t, "noreply@example.com", mail.From)
			assert.Equal(t, tt.notification.Email, mail.To)
			assert.Equal(t, passwordResetSubject, mail.Subject)
			assert.True(t, strings.HasPrefix(mail.Body, tt.wantGreeting))
			assert.Contains(t, mail.Body, tt.notification.Link)
		})
	}
}

func TestNotifier_NotifyPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("sends rendered mail", func(t *testing.T) {
		sender := mocks.NewMailSender(t)
		sender.On("Send", ctx, mock.MatchedBy(func(m model.Mail) bool {
			return m.To == testNotification.Email && strings.Contains(m.Body, testNotification.Link)
		})).Return(nil).Once()

		err := NewNotifier(sender, "noreply@example.com").NotifyPasswordReset(ctx, testNotification)
		require.NoError(t, err)
	})

	t.Run("sender error", func(t *testing.T) {
		sender := mocks.NewMailSender(t)
		sender.On("Send", ctx, mock.Anything).Return(errors.New("smtp down")).Once()

		err := NewNotifier(sender, "noreply@example.com").NotifyPasswordReset(ctx, testNotification)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send password reset mail")
	})
}

func TestOutboxSender_Send(t *testing.T) {
	ctx := context.Background()
	mail, err := RenderPasswordReset("noreply@example.com", testNotification)
	require.NoError(t, err)

	t.Run("stores eml under dated key", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		var stored []byte
		storage.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "outbox/2026/03/01/") && strings.HasSuffix(key, ".eml")
		}), mock.Anything).Run(func(args mock.Arguments) {
			stored, _ = io.ReadAll(args.Get(2).(io.Reader))
		}).Return(nil).Once()

		sender := NewOutboxSender(storage, testutil.MakeNoopLogger())
		sender.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

		require.NoError(t, sender.Send(ctx, mail))

		msg := string(stored)
		assert.Contains(t, msg, "To: maria@example.com\r\n")
		assert.Contains(t, msg, "From: noreply@example.com\r\n")
		assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n")
		assert.True(t, strings.HasSuffix(msg, mail.Body))
	})

	t.Run("storage error", func(t *testing.T) {
		storage := mocks.NewStorage(t)
		storage.On("Upload", ctx, mock.Anything, mock.Anything).Return(errors.New("bucket gone")).Once()

		err := NewOutboxSender(storage, testutil.MakeNoopLogger()).Send(ctx, mail)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store mail in outbox")
	})
}

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(logger.NewWithFormat(0, "text", &buf))

	require.NoError(t, sender.Send(context.Background(), model.Mail{To: "a@b.c", Subject: "hi", Body: "link"}))
	assert.Contains(t, buf.String(), "to=a@b.c")
	assert.Contains(t, buf.String(), "link")
}

func TestEncodeMessage_EncodesSubject(t *testing.T) {
	msg := string(encodeMessage(model.Mail{Subject: passwordResetSubject}, time.Unix(0, 0).UTC()))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
}
