package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dtroode/encuentro-server/internal/logger"
)

// WorkerConfig collects the dependencies of the worker.
type WorkerConfig struct {
	RedisOpts       asynq.RedisClientOpt
	Concurrency     int
	CleanupSchedule string
	Handlers        *Handlers
	Logger          *logger.Logger
}

// Worker runs the asynq server and the cleanup scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *logger.Logger
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("worker: handlers are required")
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		Logger: newAsynqLogger(cfg.Logger),
	})
	mux := asynq.NewServeMux()
	cfg.Handlers.Register(mux)

	var scheduler *asynq.Scheduler
	if cfg.CleanupSchedule != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   newAsynqLogger(cfg.Logger),
		})
		_, err := scheduler.Register(cfg.CleanupSchedule, NewCleanupResetTokensTask(), asynq.Queue(QueueDefault))
		if err != nil {
			return nil, fmt.Errorf("failed to register cleanup schedule: %w", err)
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run processes tasks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if err := w.server.Start(w.mux); err != nil {
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return fmt.Errorf("failed to start worker: %w", err)
	}
	w.logger.Info("Jobs: worker started")

	<-ctx.Done()

	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	w.logger.Info("Jobs: worker stopped")

	return nil
}
