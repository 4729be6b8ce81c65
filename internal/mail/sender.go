package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

const outboxPrefix = "outbox"

var (
	_ model.MailSender = (*LogSender)(nil)
	_ model.MailSender = (*OutboxSender)(nil)
)

// LogSender writes messages to the application log instead of delivering them.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, mail model.Mail) error {
	s.logger.InfoContext(ctx, "Mail: message not delivered, log driver in use",
		"to", mail.To,
		"subject", mail.Subject,
		"body", mail.Body)
	return nil
}

// OutboxSender stores every message as an RFC 822 file in object storage.
// An external relay picks the files up and delivers them.
type OutboxSender struct {
	storage model.Storage
	logger  *logger.Logger
	now     func() time.Time
}

func NewOutboxSender(storage model.Storage, logger *logger.Logger) *OutboxSender {
	return &OutboxSender{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *OutboxSender) Send(ctx context.Context, mail model.Mail) error {
	now := s.now().UTC()
	key := fmt.Sprintf("%s/%s/%s.eml", outboxPrefix, now.Format("2006/01/02"), uuid.NewString())

	if err := s.storage.Upload(ctx, key, bytes.NewReader(encodeMessage(mail, now))); err != nil {
		return fmt.Errorf("failed to store mail in outbox: %w", err)
	}

	s.logger.DebugContext(ctx, "Mail: message stored in outbox", "key", key, "to", mail.To)
	return nil
}

func encodeMessage(mail model.Mail, date time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", mail.From)
	fmt.Fprintf(&b, "To: %s\r\n", mail.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(mail.Body)
	return b.Bytes()
}
