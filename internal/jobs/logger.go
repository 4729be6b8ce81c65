package jobs

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dtroode/encuentro-server/internal/logger"
)

var _ asynq.Logger = (*asynqLogger)(nil)

// asynqLogger routes asynq's internal logs through the application logger.
type asynqLogger struct {
	logger *logger.Logger
}

func newAsynqLogger(l *logger.Logger) *asynqLogger {
	return &asynqLogger{logger: l}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug("asynq: " + fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info("asynq: " + fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn("asynq: " + fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error("asynq: " + fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal("asynq: " + fmt.Sprint(args...))
}
