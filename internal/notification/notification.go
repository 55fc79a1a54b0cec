package notification

import (
	"context"
	"log/slog"
)

// Message is one outbound notification. Transport details live behind
// Sender; the core only composes messages.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the log instead of delivering them.
// It is the default when no mailer is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("notification (not delivered, mailer disabled)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body)
	return nil
}
