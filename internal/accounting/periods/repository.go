package periods

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

type Repository interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (Period, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Period, error)
	// FindOpenContaining returns nil when no open period covers date.
	FindOpenContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the locked reads and writes of period lifecycle changes.
type TxRepository interface {
	LockTenant(ctx context.Context, tenantID uuid.UUID) error
	FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*Period, error)
	Insert(ctx context.Context, p Period) (Period, error)
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (Period, error)
	CountDraftEntries(ctx context.Context, tenantID, periodID uuid.UUID) (int, error)
	MarkClosed(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) (Period, error)
}

const periodColumns = `id, tenant_id, name, start_date, end_date, status, closed_at, closed_by_id, notes, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrPeriodNotFound
	}
	return p, err
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 ORDER BY start_date DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) FindOpenContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE tenant_id=$1 AND status='OPEN' AND $2::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, tenantID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// LockTenant serialises period creation per tenant so overlap checks cannot race.
func (r *txRepository) LockTenant(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('periods:' || $1::text))`, tenantID)
	return err
}

func (r *txRepository) FindOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE tenant_id=$1 AND start_date <= $3::date AND end_date >= $2::date ORDER BY start_date LIMIT 1`, tenantID, start, end))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) Insert(ctx context.Context, p Period) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `INSERT INTO accounting_periods (id, tenant_id, name, start_date, end_date, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+periodColumns, p.ID, p.TenantID, p.Name, p.StartDate, p.EndDate, p.Status, p.Notes))
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, shared.ErrPeriodNotFound
	}
	return p, err
}

func (r *txRepository) CountDraftEntries(ctx context.Context, tenantID, periodID uuid.UUID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE tenant_id=$1 AND period_id=$2 AND status='DRAFT'`, tenantID, periodID).Scan(&n)
	return n, err
}

func (r *txRepository) MarkClosed(ctx context.Context, tenantID, id, userID uuid.UUID, at time.Time) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `UPDATE accounting_periods SET status='CLOSED', closed_at=$3, closed_by_id=$4, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 RETURNING `+periodColumns, tenantID, id, at, userID))
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.ClosedByID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
