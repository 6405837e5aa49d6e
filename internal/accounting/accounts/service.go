package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetupChartOfAccounts seeds the default PUC chart and the default accounting config for a tenant.
// It fails with shared.ErrAlreadyConfigured once the tenant owns any account.
func (s *Service) SetupChartOfAccounts(ctx context.Context, tenantID uuid.UUID) (SetupResult, error) {
	var created int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockTenant(ctx, tenantID); err != nil {
			return err
		}
		existing, err := tx.CountAccounts(ctx, tenantID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return shared.ErrAlreadyConfigured
		}
		ids := make(map[string]uuid.UUID, len(pucSeed))
		known := make(map[string]bool, len(pucSeed))
		roles := make(map[mappings.Role]uuid.UUID)
		for _, row := range pucSeed {
			account := Account{
				ID:              uuid.New(),
				TenantID:        tenantID,
				Code:            row.Code,
				Name:            row.Name,
				Type:            row.Type,
				Nature:          row.Nature,
				Level:           LevelForCode(row.Code),
				IsSystemAccount: true,
				IsBankAccount:   row.Bank,
				IsActive:        true,
			}
			if code, ok := parentCode(row.Code, known); ok {
				parent := ids[code]
				account.ParentID = &parent
			}
			if err := tx.InsertAccount(ctx, account); err != nil {
				return fmt.Errorf("insert account %s: %w", row.Code, err)
			}
			ids[row.Code] = account.ID
			known[row.Code] = true
			if row.Role != "" {
				roles[row.Role] = account.ID
			}
			created++
		}
		return tx.InsertConfig(ctx, mappings.NewDefaultConfig(tenantID, roles))
	})
	if err != nil {
		return SetupResult{}, err
	}
	return SetupResult{
		Message:         "Chart of accounts configured",
		AccountsCreated: created,
	}, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// SetActive toggles the activation flag, the only mutation allowed after setup.
func (s *Service) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (Account, error) {
	return s.repo.SetActive(ctx, tenantID, id, active)
}

// ValidateActive checks ids with one batch lookup and reports every id that is unknown,
// foreign to the tenant or inactive.
func (s *Service) ValidateActive(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	unique := dedupe(ids)
	found, err := s.repo.FindByIDs(ctx, tenantID, unique)
	if err != nil {
		return err
	}
	active := make(map[uuid.UUID]bool, len(found))
	for _, a := range found {
		active[a.ID] = a.IsActive
	}
	var invalid []uuid.UUID
	for _, id := range unique {
		if !active[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return &shared.InvalidAccountsError{IDs: invalid}
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
