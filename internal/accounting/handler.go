package accounting

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Options configure the ledger module.
type Options struct {
	EntryPrefix    string
	ConfigCacheTTL time.Duration
}

// Module bundles the ledger services and their HTTP handlers.
type Module struct {
	Accounts *accounts.Service
	Config   *mappings.Service
	Periods  *periods.Service
	Journals *journals.Service

	logger   *slog.Logger
	handlers []interface{ MountRoutes(chi.Router) }
}

// NewModule wires repositories, services and handlers over one pool.
func NewModule(logger *slog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, opts Options) *Module {
	audit := shared.NewAuditLogger(pool)

	accountSvc := accounts.NewService(accounts.NewRepository(pool))
	configSvc := mappings.NewService(mappings.NewRepository(pool), accountSvc, mappings.NewCache(redisClient, opts.ConfigCacheTTL), logger)
	periodSvc := periods.NewService(periods.NewRepository(pool), audit)
	journalSvc := journals.NewService(journals.NewRepository(pool), audit, opts.EntryPrefix)

	return &Module{
		Accounts: accountSvc,
		Config:   configSvc,
		Periods:  periodSvc,
		Journals: journalSvc,
		logger:   logger,
		handlers: []interface{ MountRoutes(chi.Router) }{
			accounts.NewHandler(logger, accountSvc),
			mappings.NewHandler(logger, configSvc),
			periods.NewHandler(logger, periodSvc),
			journals.NewHandler(logger, journalSvc),
		},
	}
}

// MountRoutes registers every ledger endpoint on r.
func (m *Module) MountRoutes(r chi.Router) {
	for _, h := range m.handlers {
		h.MountRoutes(r)
	}
}
