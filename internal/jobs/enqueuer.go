package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.ResetNotifier = (*Enqueuer)(nil)

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Enqueuer defers reset mail delivery to the worker.
type Enqueuer struct {
	client taskClient
}

// NewEnqueuer creates an Enqueuer backed by an asynq client on redisOpts.
func NewEnqueuer(redisOpts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpts)}
}

func (e *Enqueuer) NotifyPasswordReset(ctx context.Context, notification model.PasswordResetNotification) error {
	task, err := NewPasswordResetMailTask(notification)
	if err != nil {
		return err
	}

	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.Deadline(notification.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue password reset mail: %w", err)
	}

	return nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
