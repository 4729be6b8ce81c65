package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/observability"
)

const (
	// QueueDefault is the queue every task of the server goes to.
	QueueDefault = "default"
	// TaskPasswordResetMail delivers a reset link to a user.
	TaskPasswordResetMail = "mail:password_reset"
	// TaskCleanupResetTokens purges used and expired reset tokens.
	TaskCleanupResetTokens = "auth:cleanup_reset_tokens"
)

const maxMailRetries = 5

// ResetCleaner removes reset tokens that can no longer be consumed.
type ResetCleaner interface {
	CleanupResetTokens(ctx context.Context) (int64, error)
}

// NewPasswordResetMailTask builds the delivery task for n.
func NewPasswordResetMailTask(n model.PasswordResetNotification) (*asynq.Task, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal password reset payload: %w", err)
	}
	return asynq.NewTask(TaskPasswordResetMail, data, asynq.MaxRetry(maxMailRetries)), nil
}

// NewCleanupResetTokensTask builds the periodic cleanup task.
func NewCleanupResetTokensTask() *asynq.Task {
	return asynq.NewTask(TaskCleanupResetTokens, nil, asynq.MaxRetry(0))
}

// Handlers processes the tasks of the server.
type Handlers struct {
	notifier model.ResetNotifier
	cleaner  ResetCleaner
	metrics  *observability.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

func NewHandlers(notifier model.ResetNotifier, cleaner ResetCleaner, metrics *observability.Metrics, logger *logger.Logger) *Handlers {
	return &Handlers{
		notifier: notifier,
		cleaner:  cleaner,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// HandlePasswordResetMail delivers a queued reset link.
func (h *Handlers) HandlePasswordResetMail(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var n model.PasswordResetNotification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		h.logger.ErrorContext(ctx, "Jobs: malformed password reset payload", "error", err)
		return h.metrics.ObserveJob(TaskPasswordResetMail, start, fmt.Errorf("failed to decode payload: %v: %w", err, asynq.SkipRetry))
	}

	if !h.now().Before(n.ExpiresAt) {
		h.logger.InfoContext(ctx, "Jobs: reset link expired before delivery, dropping", "email", n.Email)
		return h.metrics.ObserveJob(TaskPasswordResetMail, start, nil)
	}

	if err := h.notifier.NotifyPasswordReset(ctx, n); err != nil {
		h.logger.ErrorContext(ctx, "Jobs: failed to deliver password reset mail", "email", n.Email, "error", err)
		return h.metrics.ObserveJob(TaskPasswordResetMail, start, err)
	}

	return h.metrics.ObserveJob(TaskPasswordResetMail, start, nil)
}

// HandleCleanupResetTokens runs the reset token cleanup.
func (h *Handlers) HandleCleanupResetTokens(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()

	deleted, err := h.cleaner.CleanupResetTokens(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Jobs: reset token cleanup failed", "error", err)
		return h.metrics.ObserveJob(TaskCleanupResetTokens, start, err)
	}

	h.logger.InfoContext(ctx, "Jobs: reset token cleanup finished", "deleted", deleted)
	return h.metrics.ObserveJob(TaskCleanupResetTokens, start, nil)
}

// Register attaches the task handlers to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskPasswordResetMail, h.HandlePasswordResetMail)
	mux.HandleFunc(TaskCleanupResetTokens, h.HandleCleanupResetTokens)
}
