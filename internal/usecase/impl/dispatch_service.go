package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"typeit/config"
	deliverycontext "typeit/internal/delivery/context"
	"typeit/internal/domain/constants"
	"typeit/internal/domain/service"
	"typeit/internal/usecase"

	"go.uber.org/fx"
)

// dispatchService implements the DispatchUsecase interface.
type dispatchService struct {
	hasher        service.PasswordHasher
	tokenService  service.TokenService
	renderer      service.MailRenderer
	sender        service.MailSender
	verifyBaseURL string
	resetLifetime time.Duration
	logger        *slog.Logger
}

// DispatchServiceParams holds dependencies for DispatchService, injected by Fx.
type DispatchServiceParams struct {
	fx.In

	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Renderer     service.MailRenderer
	Sender       service.MailSender
	Config       *config.Config
	Logger       *slog.Logger
}

// NewDispatchService is the constructor for dispatchService.
func NewDispatchService(params DispatchServiceParams) usecase.DispatchUsecase {
	srv := &dispatchService{
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		renderer:     params.Renderer,
		sender:       params.Sender,
		logger:       params.Logger,
	}
	if params.Config.Mail != nil {
		srv.verifyBaseURL = params.Config.Mail.VerifyBaseURL
	}
	if params.Config.Auth != nil {
		srv.resetLifetime = params.Config.Auth.TempCredentialTTL
	}

	return srv
}

func (srv *dispatchService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SendVerification issues a verification token whose proof is a fresh hash of the email,
// and mails the link built from it.
func (srv *dispatchService) SendVerification(ctx context.Context, email string) usecase.DeliveryResult {
	proof, err := srv.hasher.Hash(email)
	if err != nil {
		srv.log(ctx).Error("Failed to hash verification proof", slog.Any("error", err))

		return usecase.DeliveryFailed
	}

	token, err := srv.tokenService.IssueVerificationToken(email, proof)
	if err != nil {
		srv.log(ctx).Error("Failed to issue verification token", slog.Any("error", err))

		return usecase.DeliveryFailed
	}

	return srv.deliver(ctx, email, constants.MailTemplateVerification, map[string]any{
		"Link": srv.verifyBaseURL + token,
	})
}

// SendReset mails the temporary password together with its validity window.
func (srv *dispatchService) SendReset(ctx context.Context, email, password string) usecase.DeliveryResult {
	return srv.deliver(ctx, email, constants.MailTemplateReset, map[string]any{
		"Password": password,
		"Lifetime": formatLifetime(srv.resetLifetime),
	})
}

func (srv *dispatchService) deliver(ctx context.Context, to, template string, data map[string]any) usecase.DeliveryResult {
	subject, body, err := srv.renderer.Render(template, data)
	if err != nil {
		srv.log(ctx).Error("Failed to render email", slog.String("template", template), slog.Any("error", err))

		return usecase.DeliveryFailed
	}

	if err := srv.sender.Send(ctx, service.MailMessage{To: to, Subject: subject, HTMLBody: body}); err != nil {
		srv.log(ctx).Warn("Email delivery failed",
			slog.String("template", template),
			slog.String("email", to),
			slog.Any("error", err),
		)

		return usecase.DeliveryFailed
	}

	srv.log(ctx).Info("Email delivered", slog.String("template", template), slog.String("email", to))

	return usecase.DeliveryDelivered
}

// formatLifetime renders whole minutes in words and falls back to Duration.String otherwise.
func formatLifetime(d time.Duration) string {
	switch {
	case d <= 0:
		return "a few minutes"
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
