package model

import "context"

// Mail is a rendered outgoing message.
type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// MailSender delivers rendered messages.
type MailSender interface {
	Send(ctx context.Context, mail Mail) error
}
