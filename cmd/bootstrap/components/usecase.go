package components

import (
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/usecase"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/queries"
	"practice-hub/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	commands.NewTokenService,
	commands.NewBookingStore,
	commands.NewProposalStore,
	commands.NewInviteComposer,
	func(uow shared.UnitOfWork, mailer shared.Mailer, clk clock.Clock, cfg config.Config) *commands.NotificationDispatcher {
		return commands.NewNotificationDispatcher(uow, mailer, clk, cfg.Mail)
	},
	commands.NewCalendarNotifier,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewRescheduleUseCase,
		commands.NewBookingUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
