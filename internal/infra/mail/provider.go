package mail

import (
	"log/slog"

	"typeit/config"
	"typeit/internal/domain/constants"
	"typeit/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// SenderParams holds dependencies for MailSender, injected by Fx
type SenderParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewMailSender creates a MailSender based on configuration
func NewMailSender(params SenderParams) (service.MailSender, error) {
	cfg := params.Config.Mail
	logger := params.Logger

	switch cfg.Provider {
	case constants.MailProviderLog:
		logger.Warn("Mail delivery disabled, messages are only logged")

		return NewLogSender(logger), nil

	case constants.MailProviderSMTP:
		if cfg.SMTP.Host == "" || cfg.SMTP.Port == 0 {
			return nil, errors.New("smtp host and port are required for smtp mail provider")
		}
		if cfg.From == "" {
			return nil, errors.New("mail from address is required for smtp mail provider")
		}
		logger.Info("Using SMTP mail sender",
			slog.String("host", cfg.SMTP.Host),
			slog.Int("port", cfg.SMTP.Port),
		)

		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.From), nil

	default:
		return nil, errors.Errorf("unknown mail provider: %s", cfg.Provider)
	}
}

// Module provides the mail FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewRenderer, fx.As(new(service.MailRenderer))),
		NewMailSender,
	),
)
