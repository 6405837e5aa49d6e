package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Execer is the subset of pgx shared by pools and transactions.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*Config, error)
	// Update loads the tenant row under lock, applies fn and upserts the result.
	Update(ctx context.Context, tenantID uuid.UUID, fn func(*Config) error) (*Config, error)
}

var (
	roleColumns  string
	upsertConfig string
)

func init() {
	cols := make([]string, 0, len(AllRoles))
	params := make([]string, 0, len(AllRoles))
	sets := make([]string, 0, len(AllRoles))
	for i, role := range AllRoles {
		cols = append(cols, role.column())
		params = append(params, fmt.Sprintf("$%d", i+2))
		sets = append(sets, fmt.Sprintf("%s=EXCLUDED.%s", role.column(), role.column()))
	}
	roleColumns = strings.Join(cols, ", ")
	autoParam := fmt.Sprintf("$%d", len(AllRoles)+2)
	upsertConfig = `INSERT INTO accounting_config (tenant_id, ` + roleColumns + `, auto_generate_entries)
VALUES ($1, ` + strings.Join(params, ", ") + `, ` + autoParam + `)
ON CONFLICT (tenant_id) DO UPDATE SET ` + strings.Join(sets, ", ") + `, auto_generate_entries=EXCLUDED.auto_generate_entries, updated_at=NOW()`
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID) (*Config, error) {
	return scanConfig(r.db.QueryRow(ctx, `SELECT tenant_id, `+roleColumns+`, auto_generate_entries, created_at, updated_at
FROM accounting_config WHERE tenant_id=$1`, tenantID))
}

func (r *repository) Update(ctx context.Context, tenantID uuid.UUID, fn func(*Config) error) (*Config, error) {
	var out *Config
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cfg, err := scanConfig(tx.QueryRow(ctx, `SELECT tenant_id, `+roleColumns+`, auto_generate_entries, created_at, updated_at
FROM accounting_config WHERE tenant_id=$1 FOR UPDATE`, tenantID))
		if err != nil {
			return err
		}
		if cfg == nil {
			fresh := NewDefaultConfig(tenantID, nil)
			cfg = &fresh
		}
		if err := fn(cfg); err != nil {
			return err
		}
		if err := UpsertConfig(ctx, tx, *cfg); err != nil {
			return err
		}
		out, err = scanConfig(tx.QueryRow(ctx, `SELECT tenant_id, `+roleColumns+`, auto_generate_entries, created_at, updated_at
FROM accounting_config WHERE tenant_id=$1`, tenantID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertConfig writes the full config row. Tenant setup calls it inside its own transaction.
func UpsertConfig(ctx context.Context, q Execer, cfg Config) error {
	args := make([]any, 0, len(AllRoles)+2)
	args = append(args, cfg.TenantID)
	for _, role := range AllRoles {
		if id, ok := cfg.Account(role); ok {
			args = append(args, id)
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, cfg.AutoGenerateEntries)
	_, err := q.Exec(ctx, upsertConfig, args...)
	return err
}

func scanConfig(row pgx.Row) (*Config, error) {
	ids := make([]*uuid.UUID, len(AllRoles))
	var cfg Config
	dest := make([]any, 0, len(AllRoles)+4)
	dest = append(dest, &cfg.TenantID)
	for i := range ids {
		dest = append(dest, &ids[i])
	}
	dest = append(dest, &cfg.AutoGenerateEntries, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	cfg.Accounts = make(map[Role]uuid.UUID, len(AllRoles))
	for i, role := range AllRoles {
		if ids[i] != nil {
			cfg.Accounts[role] = *ids[i]
		}
	}
	return &cfg, nil
}
