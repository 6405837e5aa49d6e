package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]Account, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (Account, error)
	// FindByIDs returns the tenant's accounts among ids; unknown ids are simply absent.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Account, error)
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (Account, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the writes tenant setup performs atomically.
type TxRepository interface {
	LockTenant(ctx context.Context, tenantID uuid.UUID) error
	CountAccounts(ctx context.Context, tenantID uuid.UUID) (int, error)
	InsertAccount(ctx context.Context, account Account) error
	InsertConfig(ctx context.Context, cfg mappings.Config) error
}

const accountColumns = `id, tenant_id, code, name, type, nature, parent_id, level, is_system_account, is_bank_account, is_active, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *repository) Get(ctx context.Context, tenantID, id uuid.UUID) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, err
}

func (r *repository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *repository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `UPDATE accounts SET is_active=$3, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 RETURNING `+accountColumns, tenantID, id, active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// LockTenant serialises concurrent setups of the same tenant.
func (r *txRepository) LockTenant(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('accounts:' || $1::text))`, tenantID)
	return err
}

func (r *txRepository) CountAccounts(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE tenant_id=$1`, tenantID).Scan(&n)
	return n, err
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO accounts (id, tenant_id, code, name, type, nature, parent_id, level, is_system_account, is_bank_account, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, a.ID, a.TenantID, a.Code, a.Name, a.Type, a.Nature, a.ParentID, a.Level, a.IsSystemAccount, a.IsBankAccount, a.IsActive)
	if db.IsUniqueViolation(err, "uq_accounts_tenant_code") {
		return shared.ErrAlreadyConfigured
	}
	return err
}

func (r *txRepository) InsertConfig(ctx context.Context, cfg mappings.Config) error {
	return mappings.UpsertConfig(ctx, r.tx, cfg)
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.ParentID, &a.Level,
		&a.IsSystemAccount, &a.IsBankAccount, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
