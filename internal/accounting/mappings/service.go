package mappings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// AccountValidator checks that account ids exist, belong to the tenant and are active.
type AccountValidator interface {
	ValidateActive(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

type Service struct {
	repo     Repository
	accounts AccountValidator
	cache    *Cache
	logger   *slog.Logger
	group    singleflight.Group
}

func NewService(repo Repository, accounts AccountValidator, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, accounts: accounts, cache: cache, logger: logger}
}

// GetConfig returns the tenant config straight from the store, nil when setup never ran.
func (s *Service) GetConfig(ctx context.Context, tenantID uuid.UUID) (*Config, error) {
	return s.repo.Get(ctx, tenantID)
}

// GetConfigForTenant is the bridge read path. It is served from Redis when possible and
// concurrent misses for one tenant share a single load.
func (s *Service) GetConfigForTenant(ctx context.Context, tenantID uuid.UUID) (*Config, error) {
	cached, err := s.cache.Get(ctx, tenantID)
	if err != nil {
		s.logger.Warn("config cache read failed", slog.String("tenant_id", tenantID.String()), slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}
	key := tenantID.String()
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		version, verErr := s.cache.Version(ctx, tenantID)
		cfg, err := s.repo.Get(ctx, tenantID)
		if err != nil || cfg == nil {
			return cfg, err
		}
		if verErr != nil {
			s.logger.Warn("config cache version read failed", slog.String("tenant_id", key), slog.Any("error", verErr))
			return cfg, nil
		}
		if _, err := s.cache.Set(ctx, cfg, version); err != nil {
			s.logger.Warn("config cache write failed", slog.String("tenant_id", key), slog.Any("error", err))
		}
		return cfg, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		cfg, _ := res.Val.(*Config)
		return cfg, nil
	}
}

// UpdateConfig applies a partial update. Every referenced account must be an active account of
// the tenant. Roles listed in Clear are unmapped; a role cannot be both set and cleared.
func (s *Service) UpdateConfig(ctx context.Context, tenantID uuid.UUID, in ConfigUpdate) (*Config, error) {
	ids := make([]uuid.UUID, 0, len(in.Accounts))
	for role, id := range in.Accounts {
		if !role.Valid() || id == uuid.Nil {
			return nil, fmt.Errorf("%w: unknown role or empty account for %q", shared.ErrInvalidInput, role)
		}
		ids = append(ids, id)
	}
	for _, role := range in.Clear {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, role)
		}
		if _, ok := in.Accounts[role]; ok {
			return nil, fmt.Errorf("%w: role %q both set and cleared", shared.ErrInvalidInput, role)
		}
	}
	if len(ids) > 0 && s.accounts != nil {
		if err := s.accounts.ValidateActive(ctx, tenantID, ids); err != nil {
			return nil, err
		}
	}
	cfg, err := s.repo.Update(ctx, tenantID, func(cfg *Config) error {
		if cfg.Accounts == nil {
			cfg.Accounts = make(map[Role]uuid.UUID, len(in.Accounts))
		}
		for role, id := range in.Accounts {
			cfg.Accounts[role] = id
		}
		for _, role := range in.Clear {
			delete(cfg.Accounts, role)
		}
		if in.AutoGenerateEntries != nil {
			cfg.AutoGenerateEntries = *in.AutoGenerateEntries
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn("config cache invalidate failed", slog.String("tenant_id", tenantID.String()), slog.Any("error", err))
	}
	return cfg, nil
}
