package components

import (
	"practice-hub/internal/infra/db"
	"practice-hub/internal/infra/uow"
	"practice-hub/internal/usecase/shared"

	"go.uber.org/fx"
)

// Repositories are created per transaction by the unit of work.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		db.New,
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
	),
)
