package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// demoTenant is stable so repeated seeds land on the same books.
var demoTenant = uuid.MustParse("0f6b6f0e-3c1a-4d2e-9a55-5e7d4b1f2a10")

func main() {
	cfg, err := app.LoadConfig(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	logger := app.NewLogger(cfg)
	module := accounting.NewModule(logger, pool, nil, accounting.Options{EntryPrefix: cfg.LedgerEntryPrefix, ConfigCacheTTL: cfg.ConfigCacheTTL})

	// Phase 1: Chart of accounts
	fmt.Println("→ Seeding chart of accounts...")
	if err := seedChart(ctx, module); err != nil {
		log.Fatalf("seed chart: %v", err)
	}

	// Phase 2: Periods
	fmt.Println("→ Seeding accounting period...")
	period, err := seedPeriod(ctx, module)
	if err != nil {
		log.Fatalf("seed period: %v", err)
	}

	// Phase 3: Manual entries
	fmt.Println("→ Seeding opening entry...")
	if err := seedOpening(ctx, module, period); err != nil {
		log.Fatalf("seed opening: %v", err)
	}

	// Phase 4: Business events through the posting bridge
	fmt.Println("→ Seeding automatic postings...")
	if err := seedEvents(ctx, module, logger); err != nil {
		log.Fatalf("seed events: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339), "tenant", demoTenant)
}

func seedChart(ctx context.Context, module *accounting.Module) error {
	result, err := module.Accounts.SetupChartOfAccounts(ctx, demoTenant)
	if errors.Is(err, shared.ErrAlreadyConfigured) {
		fmt.Println("  chart already configured")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("  %d accounts created\n", result.AccountsCreated)
	return nil
}

func seedPeriod(ctx context.Context, module *accounting.Module) (periods.Period, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	period, err := module.Periods.Create(ctx, demoTenant, periods.CreateInput{
		Name:      start.Format("2006-01"),
		StartDate: start,
		EndDate:   end,
	})
	if errors.Is(err, shared.ErrPeriodOverlap) {
		existing, err := module.Periods.FindOpenPeriodContaining(ctx, demoTenant, now)
		if err != nil {
			return periods.Period{}, err
		}
		if existing == nil {
			return periods.Period{}, errors.New("current month is covered by a closed period")
		}
		return *existing, nil
	}
	return period, err
}

func seedOpening(ctx context.Context, module *accounting.Module, period periods.Period) error {
	manual, err := module.Journals.List(ctx, demoTenant, journals.ListFilter{Source: journals.SourceManual})
	if err != nil {
		return err
	}
	if len(manual) > 0 {
		fmt.Println("  opening entry already recorded")
		return nil
	}
	cfg, err := module.Config.GetConfigForTenant(ctx, demoTenant)
	if err != nil {
		return err
	}
	bank, _ := cfg.Account(mappings.RoleBank)
	inventory, _ := cfg.Account(mappings.RoleInventory)
	payables, _ := cfg.Account(mappings.RolePayables)
	entry, err := module.Journals.Create(ctx, demoTenant, uuid.Nil, journals.CreateInput{
		Date:        period.StartDate,
		Description: "Saldos iniciales",
		PeriodID:    &period.ID,
		Lines: []journals.LineInput{
			{AccountID: bank, Debit: decimal.NewFromInt(5_000_000)},
			{AccountID: inventory, Debit: decimal.NewFromInt(2_000_000)},
			{AccountID: payables, Credit: decimal.NewFromInt(7_000_000)},
		},
	})
	if err != nil {
		return err
	}
	_, err = module.Journals.Post(ctx, demoTenant, entry.ID, uuid.Nil)
	return err
}

func seedEvents(ctx context.Context, module *accounting.Module, logger *slog.Logger) error {
	enabled := true
	if _, err := module.Config.UpdateConfig(ctx, demoTenant, mappings.ConfigUpdate{AutoGenerateEntries: &enabled}); err != nil {
		return err
	}
	hooks := integration.NewHooks(module.Journals, module.Config, logger, nil)
	today := time.Now().UTC()
	cost := decimal.NewFromInt(40_000)
	events := []integration.Event{
		integration.NewPurchaseReceived(demoTenant, integration.PurchaseEvent{
			PurchaseOrderID: uuid.NewSHA1(demoTenant, []byte("po-1")),
			Number:          "OC-0001",
			Date:            today,
			Subtotal:        decimal.NewFromInt(600_000),
			Tax:             decimal.NewFromInt(114_000),
			Total:           decimal.NewFromInt(714_000),
		}),
		integration.NewInvoiceCreated(demoTenant, integration.InvoiceEvent{
			InvoiceID:      uuid.NewSHA1(demoTenant, []byte("fv-1")),
			Number:         "FV-0001",
			Date:           today,
			Subtotal:       decimal.NewFromInt(100_000),
			Tax:            decimal.NewFromInt(19_000),
			Total:          decimal.NewFromInt(119_000),
			IsPosImmediate: true,
			Items:          []integration.ItemLine{{ProductID: uuid.NewSHA1(demoTenant, []byte("sku-1")), Quantity: decimal.NewFromInt(1), UnitCost: &cost}},
		}),
		integration.NewStockAdjusted(demoTenant, integration.StockAdjustmentEvent{
			StockMovementID: uuid.NewSHA1(demoTenant, []byte("mv-1")),
			ProductID:       uuid.NewSHA1(demoTenant, []byte("sku-1")),
			Date:            today,
			Quantity:        decimal.NewFromInt(-2),
			CostPrice:       cost,
			Reason:          "Merma",
		}),
	}
	for _, evt := range events {
		if err := hooks.Dispatch(ctx, evt); err != nil {
			return fmt.Errorf("%s: %w", evt.Kind, err)
		}
	}
	return nil
}
