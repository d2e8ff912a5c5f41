package mail

import (
	"context"
	"log/slog"

	deliverycontext "typeit/internal/delivery/context"
	"typeit/internal/domain/service"
)

// LogSender is a MailSender that logs the message instead of sending it.
// Note that this is not meant for production use as it logs the email addresses
// and all email contents, including generated passwords.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{
		logger: logger,
	}
}

// Send logs the message to the request logger when there is one.
func (s *LogSender) Send(ctx context.Context, msg service.MailMessage) error {
	deliverycontext.GetLoggerOrDefault(ctx, s.logger).Info("send email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.HTMLBody),
	)

	return nil
}
