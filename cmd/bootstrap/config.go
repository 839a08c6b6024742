package bootstrap

import (
	"practice-hub/internal/pkg/config"

	"go.uber.org/fx"
)

// ConfigModule loads the environment once; a missing link secret stops the boot.
var ConfigModule = fx.Module("config",
	fx.Provide(config.LoadConfig),
)
