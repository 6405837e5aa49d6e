//go:build integration

package accounting_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db/dbtest"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func march(day int) time.Time {
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestLedgerAgainstPostgres(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := accounting.NewModule(logger, pool, nil, accounting.Options{EntryPrefix: "AC", ConfigCacheTTL: time.Minute})
	tenant, actor := uuid.New(), uuid.New()

	result, err := module.Accounts.SetupChartOfAccounts(ctx, tenant)
	require.NoError(t, err)
	require.Positive(t, result.AccountsCreated)
	_, err = module.Accounts.SetupChartOfAccounts(ctx, tenant)
	require.ErrorIs(t, err, shared.ErrAlreadyConfigured)

	cfg, err := module.Config.GetConfigForTenant(ctx, tenant)
	require.NoError(t, err)
	require.True(t, cfg.IsConfigured())
	require.False(t, cfg.AutoGenerateEntries)
	cash, _ := cfg.Account(mappings.RoleCash)
	revenue, _ := cfg.Account(mappings.RoleRevenue)

	period, err := module.Periods.Create(ctx, tenant, periods.CreateInput{Name: "Marzo 2025", StartDate: march(1), EndDate: march(31)})
	require.NoError(t, err)
	_, err = module.Periods.Create(ctx, tenant, periods.CreateInput{Name: "Overlap", StartDate: march(15), EndDate: march(20)})
	require.ErrorIs(t, err, shared.ErrPeriodOverlap)

	t.Run("manual entry lifecycle", func(t *testing.T) {
		entry, err := module.Journals.Create(ctx, tenant, actor, journals.CreateInput{
			Date:        march(10),
			Description: "Venta de contado",
			PeriodID:    &period.ID,
			Lines: []journals.LineInput{
				{AccountID: cash, Debit: decimal.RequireFromString("150.00")},
				{AccountID: revenue, Credit: decimal.RequireFromString("150.00")},
			},
		})
		require.NoError(t, err)
		require.Equal(t, journals.StatusDraft, entry.Status)
		require.Equal(t, "AC-00001", entry.EntryNumber)

		posted, err := module.Journals.Post(ctx, tenant, entry.ID, actor)
		require.NoError(t, err)
		require.Equal(t, journals.StatusPosted, posted.Status)

		reversal, err := module.Journals.Reverse(ctx, tenant, entry.ID, actor, journals.ReverseInput{})
		require.NoError(t, err)
		require.Equal(t, journals.SourceReversal, reversal.Source)
		require.True(t, reversal.Lines[0].Credit.Equal(decimal.RequireFromString("150.00")))

		voided, err := module.Journals.Void(ctx, tenant, entry.ID, actor, "error de digitación")
		require.NoError(t, err)
		require.Equal(t, journals.StatusVoided, voided.Status)
		_, err = module.Journals.Void(ctx, tenant, entry.ID, actor, "otra vez")
		require.ErrorIs(t, err, shared.ErrAlreadyVoided)

		_, err = module.Journals.Get(ctx, uuid.New(), entry.ID)
		require.ErrorIs(t, err, shared.ErrJournalNotFound)
	})

	t.Run("automatic posting is idempotent", func(t *testing.T) {
		enabled := true
		_, err := module.Config.UpdateConfig(ctx, tenant, mappings.ConfigUpdate{AutoGenerateEntries: &enabled})
		require.NoError(t, err)

		hooks := integration.NewHooks(module.Journals, module.Config, logger, integration.NewMetrics(prometheus.NewRegistry()))
		evt := integration.NewInvoiceCreated(tenant, integration.InvoiceEvent{
			InvoiceID: uuid.New(),
			Number:    "FV-100",
			Date:      march(12),
			Subtotal:  decimal.RequireFromString("1000.00"),
			Tax:       decimal.RequireFromString("190.00"),
			Total:     decimal.RequireFromString("1190.00"),
		})
		require.NoError(t, hooks.Dispatch(ctx, evt))
		require.NoError(t, hooks.Dispatch(ctx, evt))

		entries, err := module.Journals.List(ctx, tenant, journals.ListFilter{Source: journals.SourceInvoiceSale})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, journals.StatusPosted, entries[0].Status)
		require.NotNil(t, entries[0].PeriodID)
		require.Equal(t, period.ID, *entries[0].PeriodID)
		require.True(t, entries[0].TotalDebit.Equal(decimal.RequireFromString("1190.00")))
	})

	t.Run("closed period blocks manual entries", func(t *testing.T) {
		_, err := module.Journals.Create(ctx, tenant, actor, journals.CreateInput{
			Date:        march(20),
			Description: "Borrador pendiente",
			PeriodID:    &period.ID,
			Lines: []journals.LineInput{
				{AccountID: cash, Debit: decimal.NewFromInt(10)},
				{AccountID: revenue, Credit: decimal.NewFromInt(10)},
			},
		})
		require.NoError(t, err)
		_, err = module.Periods.Close(ctx, tenant, period.ID, actor)
		require.ErrorIs(t, err, shared.ErrHasDraftEntries)

		drafts, err := module.Journals.List(ctx, tenant, journals.ListFilter{Status: journals.StatusDraft})
		require.NoError(t, err)
		for _, draft := range drafts {
			_, err := module.Journals.Void(ctx, tenant, draft.ID, actor, "limpieza de cierre")
			require.NoError(t, err)
		}

		closed, err := module.Periods.Close(ctx, tenant, period.ID, actor)
		require.NoError(t, err)
		require.Equal(t, periods.PeriodStatusClosed, closed.Status)

		_, err = module.Journals.Create(ctx, tenant, actor, journals.CreateInput{
			Date:        march(25),
			Description: "Fuera de tiempo",
			PeriodID:    &period.ID,
			Lines: []journals.LineInput{
				{AccountID: cash, Debit: decimal.NewFromInt(10)},
				{AccountID: revenue, Credit: decimal.NewFromInt(10)},
			},
		})
		require.ErrorIs(t, err, shared.ErrPeriodClosed)
	})

	t.Run("integrity scan finds nothing", func(t *testing.T) {
		found, err := jobs.NewIntegrityRepository(pool).FindImbalanced(ctx, &tenant)
		require.NoError(t, err)
		require.Empty(t, found)
	})

	t.Run("concurrent creation numbers without gaps", func(t *testing.T) {
		tenant := uuid.New()
		_, err := module.Accounts.SetupChartOfAccounts(ctx, tenant)
		require.NoError(t, err)
		cfg, err := module.Config.GetConfigForTenant(ctx, tenant)
		require.NoError(t, err)
		cash, _ := cfg.Account(mappings.RoleCash)
		revenue, _ := cfg.Account(mappings.RoleRevenue)
		lines := []journals.LineInput{
			{AccountID: cash, Debit: decimal.NewFromInt(25)},
			{AccountID: revenue, Credit: decimal.NewFromInt(25)},
		}

		const manual, auto = 12, 6
		var (
			mu      sync.Mutex
			numbers []string
		)
		start := make(chan struct{})
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < manual+auto; i++ {
			g.Go(func() error {
				<-start
				var (
					entry journals.Entry
					err   error
				)
				if i < manual {
					entry, err = module.Journals.Create(gctx, tenant, actor, journals.CreateInput{
						Date:        march(5),
						Description: fmt.Sprintf("Venta concurrente %d", i),
						Lines:       lines,
					})
				} else {
					ref := uuid.New()
					entry, err = module.Journals.CreateAutoEntry(gctx, journals.AutoEntryInput{
						TenantID:    tenant,
						Date:        march(5),
						Description: fmt.Sprintf("Recaudo %d", i),
						Source:      journals.SourcePayment,
						SourceRef:   &ref,
						Lines:       lines,
					})
				}
				if err != nil {
					return err
				}
				mu.Lock()
				numbers = append(numbers, entry.EntryNumber)
				mu.Unlock()
				return nil
			})
		}
		close(start)
		require.NoError(t, g.Wait())

		sort.Strings(numbers)
		want := make([]string, 0, manual+auto)
		for n := 1; n <= manual+auto; n++ {
			want = append(want, journals.FormatNumber("AC", n))
		}
		require.Equal(t, want, numbers)
	})

	t.Run("closing races a concurrent entry", func(t *testing.T) {
		for round := 0; round < 6; round++ {
			first := time.Date(2026, time.Month(round+1), 1, 0, 0, 0, 0, time.UTC)
			race, err := module.Periods.Create(ctx, tenant, periods.CreateInput{
				Name:      first.Format("2006-01"),
				StartDate: first,
				EndDate:   first.AddDate(0, 1, -1),
			})
			require.NoError(t, err)

			var closeErr, createErr error
			start := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				_, closeErr = module.Periods.Close(ctx, tenant, race.ID, actor)
			}()
			go func() {
				defer wg.Done()
				<-start
				_, createErr = module.Journals.Create(ctx, tenant, actor, journals.CreateInput{
					Date:        first.AddDate(0, 0, 9),
					Description: "Borrador en carrera",
					PeriodID:    &race.ID,
					Lines: []journals.LineInput{
						{AccountID: cash, Debit: decimal.NewFromInt(10)},
						{AccountID: revenue, Credit: decimal.NewFromInt(10)},
					},
				})
			}()
			close(start)
			wg.Wait()

			stored, err := module.Periods.Get(ctx, tenant, race.ID)
			require.NoError(t, err)
			switch {
			case createErr == nil:
				require.ErrorIs(t, closeErr, shared.ErrHasDraftEntries, "round %d", round)
				require.Equal(t, periods.PeriodStatusOpen, stored.Status)
			case closeErr == nil:
				require.True(t, errors.Is(createErr, shared.ErrPeriodClosed), "round %d: %v", round, createErr)
				require.Equal(t, periods.PeriodStatusClosed, stored.Status)
			default:
				t.Fatalf("round %d: both lost: close=%v create=%v", round, closeErr, createErr)
			}
		}
	})
}
