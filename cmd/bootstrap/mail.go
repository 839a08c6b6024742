package bootstrap

import (
	"log/slog"

	"practice-hub/internal/infra/mail"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/usecase/shared"

	"go.uber.org/fx"
)

var MailModule = fx.Module("mail",
	fx.Provide(
		fx.Annotate(
			NewMailer,
			fx.As(new(shared.Mailer)),
		),
	),
)

func NewMailer(cfg config.Config) *mail.ResendClient {
	if !cfg.Mail.Enabled {
		slog.Warn("notifications disabled, mail is logged and not sent")
	} else if cfg.Mail.RedirectAllTo != "" {
		slog.Warn("all mail is redirected", "to", cfg.Mail.RedirectAllTo)
	}
	return mail.NewResendClient(cfg.Mail)
}
