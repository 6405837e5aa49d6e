package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (Entry, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// GetPeriodForShare locks the period row against a concurrent close.
	GetPeriodForShare(ctx context.Context, tenantID, periodID uuid.UUID) (periods.Period, error)
	FindOpenPeriodContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*periods.Period, error)
	FindAccounts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]accounts.Account, error)
	// NextSequence bumps the tenant counter; the row stays locked until the transaction ends.
	NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error)
	InsertEntry(ctx context.Context, entry Entry) error
	InsertLines(ctx context.Context, entryID uuid.UUID, lines []Line) error
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (Entry, error)
	GetLines(ctx context.Context, entryID uuid.UUID) ([]Line, error)
	UpdateStatus(ctx context.Context, entry Entry) error
}

const entryColumns = `id, tenant_id, entry_number, date, description, source, source_ref, status, period_id,
invoice_id, payment_id, purchase_order_id, stock_movement_id, dian_document_id,
total_debit::text, total_credit::text, created_by_id, posted_at, voided_at, COALESCE(void_reason, ''), created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrJournalNotFound
		}
		return Entry{}, err
	}
	rows, err := r.db.Query(ctx, linesQuery, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = collectLines(rows)
	return entry, err
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, error) {
	where := []string{"tenant_id=$1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status=$%d", filter.Status)
	}
	if filter.Source != "" {
		add("source=$%d", filter.Source)
	}
	if filter.From != nil {
		add("date >= $%d::date", *filter.From)
	}
	if filter.To != nil {
		add("date <= $%d::date", *filter.To)
	}
	page := internalShared.NewPage(filter.Page.Limit, filter.Page.Offset)
	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s ORDER BY entry_number DESC LIMIT $%d OFFSET $%d`,
		entryColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetPeriodForShare(ctx context.Context, tenantID, periodID uuid.UUID) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, name, start_date, end_date, status FROM accounting_periods
WHERE tenant_id=$1 AND id=$2 FOR SHARE`, tenantID, periodID).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) FindOpenPeriodContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, name, start_date, end_date, status FROM accounting_periods
WHERE tenant_id=$1 AND status='OPEN' AND $2::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR SHARE`, tenantID, date).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) FindAccounts(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, is_active FROM accounts WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []accounts.Account
	for rows.Next() {
		a := accounts.Account{TenantID: tenantID}
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.IsActive); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *txRepository) NextSequence(ctx context.Context, tenantID uuid.UUID) (int, error) {
	// First use seeds the counter from the highest number already issued.
	if _, err := r.tx.Exec(ctx, `INSERT INTO journal_sequences (tenant_id, last_value)
SELECT $1, COALESCE(MAX(substring(entry_number from '(\d+)$')::int), 0) FROM journal_entries WHERE tenant_id=$1
ON CONFLICT (tenant_id) DO NOTHING`, tenantID); err != nil {
		return 0, err
	}
	var n int
	err := r.tx.QueryRow(ctx, `UPDATE journal_sequences SET last_value=last_value+1, updated_at=NOW()
WHERE tenant_id=$1 RETURNING last_value`, tenantID).Scan(&n)
	return n, err
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO journal_entries (id, tenant_id, entry_number, date, description, source, source_ref, status, period_id,
invoice_id, payment_id, purchase_order_id, stock_movement_id, dian_document_id, total_debit, total_credit, created_by_id, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		e.ID, e.TenantID, e.EntryNumber, e.Date, e.Description, e.Source, e.SourceRef, e.Status, e.PeriodID,
		e.Refs.InvoiceID, e.Refs.PaymentID, e.Refs.PurchaseOrderID, e.Refs.StockMovementID, e.Refs.DianDocumentID,
		toNumeric(e.TotalDebit), toNumeric(e.TotalCredit), e.CreatedByID, e.PostedAt)
	if db.IsUniqueViolation(err, "uq_journal_entries_source_ref") {
		return shared.ErrSourceAlreadyLinked
	}
	return err
}

func (r *txRepository) InsertLines(ctx context.Context, entryID uuid.UUID, lines []Line) error {
	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(`INSERT INTO journal_entry_lines (entry_id, line_no, account_id, cost_center_id, description, debit, credit)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, entryID, line.LineNo, line.AccountID, line.CostCenterID, line.Description, toNumeric(line.Debit), toNumeric(line.Credit))
	}
	return r.tx.SendBatch(ctx, batch).Close()
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrJournalNotFound
	}
	return entry, err
}

func (r *txRepository) GetLines(ctx context.Context, entryID uuid.UUID) ([]Line, error) {
	rows, err := r.tx.Query(ctx, linesQuery, entryID)
	if err != nil {
		return nil, err
	}
	return collectLines(rows)
}

func (r *txRepository) UpdateStatus(ctx context.Context, e Entry) error {
	var reason any
	if e.VoidReason != "" {
		reason = e.VoidReason
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, posted_at=$4, voided_at=$5, void_reason=$6, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, e.TenantID, e.ID, e.Status, e.PostedAt, e.VoidedAt, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

const linesQuery = `SELECT l.line_no, l.account_id, a.code, a.name, l.cost_center_id, l.description, l.debit::text, l.credit::text
FROM journal_entry_lines l JOIN accounts a ON a.id = l.account_id
WHERE l.entry_id=$1 ORDER BY l.line_no`

func collectLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var (
			line          Line
			debit, credit string
		)
		if err := rows.Scan(&line.LineNo, &line.AccountID, &line.AccountCode, &line.AccountName, &line.CostCenterID, &line.Description, &debit, &credit); err != nil {
			return nil, err
		}
		var err error
		if line.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if line.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e             Entry
		debit, credit string
	)
	err := row.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.Date, &e.Description, &e.Source, &e.SourceRef, &e.Status, &e.PeriodID,
		&e.Refs.InvoiceID, &e.Refs.PaymentID, &e.Refs.PurchaseOrderID, &e.Refs.StockMovementID, &e.Refs.DianDocumentID,
		&debit, &credit, &e.CreatedByID, &e.PostedAt, &e.VoidedAt, &e.VoidReason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	if e.TotalDebit, err = decimal.NewFromString(debit); err != nil {
		return Entry{}, err
	}
	if e.TotalCredit, err = decimal.NewFromString(credit); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func toNumeric(v decimal.Decimal) string {
	return v.StringFixed(2)
}
