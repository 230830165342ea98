// Package mailer delivers outbound notifications (password reset links) over SMTP.
package mailer

import (
	"context"
	"log/slog"
)

// Message is a single HTML notification.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender performs one delivery attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender records messages instead of sending them. Used when no SMTP relay is
// configured. Bodies are never logged because they carry reset links.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail delivery skipped: no smtp relay configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.HTMLBody))
	return nil
}
