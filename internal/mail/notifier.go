package mail

import (
	"context"
	"fmt"

	"github.com/dtroode/encuentro-server/internal/model"
)

var _ model.ResetNotifier = (*Notifier)(nil)

// Notifier renders reset notifications and hands them to a MailSender.
type Notifier struct {
	sender model.MailSender
	from   string
}

func NewNotifier(sender model.MailSender, from string) *Notifier {
	return &Notifier{sender: sender, from: from}
}

func (n *Notifier) NotifyPasswordReset(ctx context.Context, notification model.PasswordResetNotification) error {
	mail, err := RenderPasswordReset(n.from, notification)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, mail); err != nil {
		return fmt.Errorf("failed to send password reset mail: %w", err)
	}

	return nil
}
