package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// Imbalance describes an entry whose stored totals disagree with each other or with its lines.
type Imbalance struct {
	TenantID    uuid.UUID
	EntryID     uuid.UUID
	EntryNumber string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	LineDebit   decimal.Decimal
	LineCredit  decimal.Decimal
}

// IntegrityScanner finds inconsistent entries.
type IntegrityScanner interface {
	FindImbalanced(ctx context.Context, tenantID *uuid.UUID) ([]Imbalance, error)
}

// IntegrityRepository scans journal tables with pgx.
type IntegrityRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrityRepository constructs the scanner.
func NewIntegrityRepository(pool *pgxpool.Pool) *IntegrityRepository {
	return &IntegrityRepository{pool: pool}
}

const imbalancedEntriesSQL = `
SELECT e.tenant_id, e.id, e.entry_number,
       e.total_debit::text, e.total_credit::text,
       COALESCE(SUM(l.debit), 0)::text, COALESCE(SUM(l.credit), 0)::text
FROM journal_entries e
LEFT JOIN journal_entry_lines l ON l.entry_id = e.id
WHERE ($1::uuid IS NULL OR e.tenant_id = $1)
GROUP BY e.tenant_id, e.id, e.entry_number, e.total_debit, e.total_credit
HAVING ABS(e.total_debit - e.total_credit) > 0.01
    OR e.total_debit <> COALESCE(SUM(l.debit), 0)
    OR e.total_credit <> COALESCE(SUM(l.credit), 0)
ORDER BY e.tenant_id, e.entry_number`

// FindImbalanced implements IntegrityScanner.
func (r *IntegrityRepository) FindImbalanced(ctx context.Context, tenantID *uuid.UUID) ([]Imbalance, error) {
	rows, err := r.pool.Query(ctx, imbalancedEntriesSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Imbalance
	for rows.Next() {
		var (
			item                  Imbalance
			debit, credit         string
			lineDebit, lineCredit string
		)
		if err := rows.Scan(&item.TenantID, &item.EntryID, &item.EntryNumber, &debit, &credit, &lineDebit, &lineCredit); err != nil {
			return nil, err
		}
		for _, pair := range []struct {
			raw string
			dst *decimal.Decimal
		}{{debit, &item.TotalDebit}, {credit, &item.TotalCredit}, {lineDebit, &item.LineDebit}, {lineCredit, &item.LineCredit}} {
			if *pair.dst, err = decimal.NewFromString(pair.raw); err != nil {
				return nil, fmt.Errorf("integrity: parse amount %q: %w", pair.raw, err)
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// LedgerIntegrityJob reports journal entries that no longer add up.
type LedgerIntegrityJob struct {
	Scanner IntegrityScanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity scan handler.
func NewLedgerIntegrityJob(scanner IntegrityScanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Scanner: scanner, Logger: logger, Metrics: metrics}
}

// Handle executes the scheduled scan.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload IntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("ledger integrity: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload.TenantID)
	return err
}

// Run scans, logs every finding and updates the imbalance gauge.
func (j *LedgerIntegrityJob) Run(ctx context.Context, tenantID *uuid.UUID) ([]Imbalance, error) {
	if j.Scanner == nil {
		return nil, errors.New("ledger integrity: scanner not configured")
	}
	start := time.Now()
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	logger := j.logger()

	found, err := j.Scanner.FindImbalanced(ctx, tenantID)
	if err != nil {
		logger.Error("ledger integrity scan failed", slog.Any("error", err))
		return nil, tracker.End(err)
	}
	for _, item := range found {
		logger.Warn("journal entry out of balance",
			slog.String("tenant_id", item.TenantID.String()),
			slog.String("entry_number", item.EntryNumber),
			slog.String("total_debit", item.TotalDebit.StringFixed(2)),
			slog.String("total_credit", item.TotalCredit.StringFixed(2)),
			slog.String("line_debit", item.LineDebit.StringFixed(2)),
			slog.String("line_credit", item.LineCredit.StringFixed(2)),
		)
	}
	if tenantID == nil {
		j.Metrics.SetImbalanced(len(found))
	}
	logger.Info("ledger integrity scan completed",
		slog.Int("imbalanced", len(found)),
		slog.Duration("duration", time.Since(start)),
	)
	return found, tracker.End(nil)
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
}
