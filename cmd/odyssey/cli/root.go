package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

type rootOptions struct {
	envFiles []string
}

func (o *rootOptions) config() (*app.Config, error) {
	return app.LoadConfig(o.envFiles...)
}

func (o *rootOptions) connect(ctx context.Context) (*app.Config, *pgxpool.Pool, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// NewRootCommand builds the ledgerctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the Odyssey accounting ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before the environment")

	root.AddCommand(
		newMigrateCommand(opts),
		newSetupCommand(opts),
		newJobsCommand(opts),
		newIntegrityCommand(opts),
		newExportCommand(opts),
	)
	return root
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Apply or roll back schema migrations"}
	withMigrator := func(cmd *cobra.Command, fn func(*db.Migrator) error) error {
		cfg, err := opts.config()
		if err != nil {
			return err
		}
		m, err := db.NewMigrator(cfg.PGDSN, app.NewLogger(cfg))
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return fn(m)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, (*db.Migrator).Up)
		},
	}
	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			return withMigrator(cmd, func(m *db.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(up, down)
	return cmd
}

func newSetupCommand(opts *rootOptions) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Seed the chart of accounts and default configuration for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			_, pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			result, err := accounts.NewService(accounts.NewRepository(pool)).SetupChartOfAccounts(ctx, tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d accounts)\n", result.Message, result.AccountsCreated)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	return cmd
}

func newJobsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Inspect and trigger background jobs"}
	withJobs := func(fn func(*JobsCLI) error) error {
		cfg, err := opts.config()
		if err != nil {
			return err
		}
		c := NewJobsCLI(cfg.Redis().Asynq())
		defer func() { _ = c.Close() }()
		return fn(c)
	}

	var tenant string
	trigger := &cobra.Command{
		Use:   "trigger <job>",
		Short: "Enqueue a job (integrity)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := optionalTenant(tenant)
			if err != nil {
				return err
			}
			return withJobs(func(c *JobsCLI) error {
				info, err := c.Trigger(cmd.Context(), args[0], tenantID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
				return nil
			})
		},
	}
	trigger.Flags().StringVar(&tenant, "tenant", "", "restrict the job to a tenant")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobs(func(c *JobsCLI) error {
				queues, err := c.InspectQueues()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
				for _, q := range queues {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", q.Queue, q.Pending, q.Active, q.Scheduled, q.Retry, q.Archived)
				}
				return tw.Flush()
			})
		},
	}

	var rerun bool
	archived := &cobra.Command{
		Use:   "archived",
		Short: "List autopost tasks that exhausted their retries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withJobs(func(c *JobsCLI) error {
				if rerun {
					n, err := c.RunArchived()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "re-enqueued %d tasks\n", n)
					return nil
				}
				tasks, err := c.ListArchived(50)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.LastFailedAt.Format(time.RFC3339), t.LastErr)
				}
				return nil
			})
		},
	}
	archived.Flags().BoolVar(&rerun, "run", false, "re-enqueue every archived task")

	cmd.AddCommand(trigger, stats, archived)
	return cmd
}

func newIntegrityCommand(opts *rootOptions) *cobra.Command {
	var (
		tenant string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Scan journal entries for inconsistent totals now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := optionalTenant(tenant)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			job := jobs.NewLedgerIntegrityJob(jobs.NewIntegrityRepository(pool), app.NewLogger(cfg), jobmetrics.NewMetrics(nil))
			found, err := job.Run(ctx, tenantID)
			if err != nil {
				return err
			}
			if asJSON {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(buildIntegritySummary(found)); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			} else {
				renderIntegrityHuman(cmd.OutOrStdout(), found)
			}
			if len(found) > 0 {
				return fmt.Errorf("%d entries out of balance", len(found))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "restrict the scan to a tenant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the findings as JSON")
	return cmd
}

// IntegritySummary is the JSON report of an integrity scan.
type IntegritySummary struct {
	OK       bool               `json:"ok"`
	Findings []IntegrityFinding `json:"findings"`
}

// IntegrityFinding describes one entry whose totals disagree with its lines.
type IntegrityFinding struct {
	TenantID    string `json:"tenant_id"`
	EntryID     string `json:"entry_id"`
	EntryNumber string `json:"entry_number"`
	TotalDebit  string `json:"total_debit"`
	TotalCredit string `json:"total_credit"`
	LineDebit   string `json:"line_debit"`
	LineCredit  string `json:"line_credit"`
}

func buildIntegritySummary(found []jobs.Imbalance) IntegritySummary {
	findings := make([]IntegrityFinding, 0, len(found))
	for _, item := range found {
		findings = append(findings, IntegrityFinding{
			TenantID:    item.TenantID.String(),
			EntryID:     item.EntryID.String(),
			EntryNumber: item.EntryNumber,
			TotalDebit:  item.TotalDebit.StringFixed(2),
			TotalCredit: item.TotalCredit.StringFixed(2),
			LineDebit:   item.LineDebit.StringFixed(2),
			LineCredit:  item.LineCredit.StringFixed(2),
		})
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].TenantID == findings[j].TenantID {
			return findings[i].EntryNumber < findings[j].EntryNumber
		}
		return findings[i].TenantID < findings[j].TenantID
	})
	return IntegritySummary{OK: len(findings) == 0, Findings: findings}
}

func renderIntegrityHuman(out io.Writer, found []jobs.Imbalance) {
	if len(found) == 0 {
		_, _ = fmt.Fprintln(out, "ledger consistent")
		return
	}
	_, _ = fmt.Fprintf(out, "%d entry(ies) out of balance:\n", len(found))
	for _, f := range buildIntegritySummary(found).Findings {
		_, _ = fmt.Fprintf(out, " - %s %s debit %s/%s credit %s/%s\n",
			f.TenantID, f.EntryNumber, f.TotalDebit, f.LineDebit, f.TotalCredit, f.LineCredit)
	}
}

type exportFlags struct {
	tenant string
	from   string
	to     string
	out    string
}

func (f exportFlags) parse() (uuid.UUID, time.Time, time.Time, error) {
	tenantID, err := parseTenant(f.tenant)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	from, err := internalShared.ParseDate(f.from)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	to, err := internalShared.ParseDate(f.to)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	if to.Before(from) {
		return uuid.Nil, time.Time{}, time.Time{}, errors.New("--to must not be before --from")
	}
	if f.out == "" {
		return uuid.Nil, time.Time{}, time.Time{}, errors.New("--out is required")
	}
	return tenantID, from, to, nil
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "export", Short: "Export ledger books"}
	var flags exportFlags
	journal := &cobra.Command{
		Use:   "journal",
		Short: "Write the journal book for a date range as an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, from, to, err := flags.parse()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, pool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			logger := app.NewLogger(cfg)

			entries, err := LoadJournal(ctx, journals.NewRepository(pool), tenantID, from, to)
			if err != nil {
				return err
			}
			file, err := os.Create(flags.out)
			if err != nil {
				return err
			}
			if err := WriteJournalBook(file, entries); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			logger.Info("journal exported", slog.String("file", flags.out), slog.Int("entries", len(entries)))
			return nil
		},
	}
	journal.Flags().StringVar(&flags.tenant, "tenant", "", "tenant id")
	journal.Flags().StringVar(&flags.from, "from", "", "first date (YYYY-MM-DD)")
	journal.Flags().StringVar(&flags.to, "to", "", "last date (YYYY-MM-DD)")
	journal.Flags().StringVar(&flags.out, "out", "libro-diario.xlsx", "output file")
	cmd.AddCommand(journal)
	return cmd
}

func parseTenant(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errors.New("--tenant is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--tenant must be a uuid: %q", raw)
	}
	return id, nil
}

func optionalTenant(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseTenant(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
