package clubshareservice

import (
	"log/slog"
	"time"

	httpadapter "coopshares/contexts/cooperative-finance/club-share-service/adapters/http"
	"coopshares/contexts/cooperative-finance/club-share-service/adapters/memory"
	"coopshares/contexts/cooperative-finance/club-share-service/application/commands"
	"coopshares/contexts/cooperative-finance/club-share-service/application/queries"
	"coopshares/contexts/cooperative-finance/club-share-service/application/workers"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

type Module struct {
	Handler httpadapter.Handler

	Importer commands.ImportUseCase
	Consent  commands.ConsentUseCase
	Release  commands.ReleaseUseCase
	Rollback commands.RollbackUseCase
	Queries  queries.UseCase

	// Store and the fakes below are populated only by NewInMemoryModule.
	Store    *memory.Store
	Notifier *memory.Notifier
	Accounts *memory.AccountDirectory
	Trading  *memory.TradingLedger
}

type Dependencies struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Notifier   ports.Notifier
	Accounts   ports.AccountProvisioner
	Trading    ports.TradingLedger
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	// ConsentWindow overrides the default consent deadline when positive.
	ConsentWindow time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	importer := commands.ImportUseCase{
		Repository: deps.Repository,
		Accounts:   deps.Accounts,
		Notifier:   deps.Notifier,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	consent := commands.ConsentUseCase{
		Repository:     deps.Repository,
		Notifier:       deps.Notifier,
		Clock:          deps.Clock,
		DeadlineWindow: deps.ConsentWindow,
		Logger:         deps.Logger,
	}
	release := commands.ReleaseUseCase{
		Repository: deps.Repository,
		Trading:    deps.Trading,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	rollback := commands.RollbackUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Importer: importer,
			Consent:  consent,
			Release:  release,
			Rollback: rollback,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
		Importer: importer,
		Consent:  consent,
		Release:  release,
		Rollback: rollback,
		Queries:  queryUseCase,
	}
}

// NewOutboxRelay builds the worker that drains this module's outbox.
func NewOutboxRelay(outbox ports.OutboxRepository, publisher ports.EventPublisher, clock ports.Clock, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		Logger:    logger,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	notifier := &memory.Notifier{}
	accounts := &memory.AccountDirectory{}
	trading := &memory.TradingLedger{}

	module := NewModule(Dependencies{
		Repository: store,
		Outbox:     store,
		Notifier:   notifier,
		Accounts:   accounts,
		Trading:    trading,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	module.Notifier = notifier
	module.Accounts = accounts
	module.Trading = trading
	return module
}
