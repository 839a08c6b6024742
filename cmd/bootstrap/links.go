package bootstrap

import (
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/config"

	"go.uber.org/fx"
)

var LinksModule = fx.Module("links",
	fx.Provide(
		NewLinkSigner,
	),
)

// NewLinkSigner fails startup when the signing secret is missing.
func NewLinkSigner(cfg config.Config) (*captoken.Signer, error) {
	return captoken.NewSigner(cfg.Links.SigningSecret)
}
