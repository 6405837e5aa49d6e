package periods

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create opens a new period. The range must be non-empty and must not touch any existing period.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (Period, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Period{}, err
	}
	start := internalShared.DateOnly(in.StartDate)
	end := internalShared.DateOnly(in.EndDate)
	if !end.After(start) {
		return Period{}, shared.ErrInvalidRange
	}
	var created Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockTenant(ctx, tenantID); err != nil {
			return err
		}
		existing, err := tx.FindOverlapping(ctx, tenantID, start, end)
		if err != nil {
			return err
		}
		if existing != nil {
			return &shared.OverlapError{Name: existing.Name, StartDate: existing.StartDate, EndDate: existing.EndDate}
		}
		created, err = tx.Insert(ctx, Period{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      in.Name,
			StartDate: start,
			EndDate:   end,
			Status:    PeriodStatusOpen,
			Notes:     in.Notes,
		})
		return err
	})
	if err != nil {
		return Period{}, err
	}
	return created, nil
}

// FindOpenPeriodContaining returns the open period covering date, or nil.
func (s *Service) FindOpenPeriodContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*Period, error) {
	return s.repo.FindOpenContaining(ctx, tenantID, internalShared.DateOnly(date))
}

// Close moves an open period to CLOSED. The draft count is taken under the period row lock,
// so no draft can be added to the period between the check and the status change.
func (s *Service) Close(ctx context.Context, tenantID, periodID, userID uuid.UUID) (Period, error) {
	var closed Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if current.Status == PeriodStatusClosed {
			return shared.ErrAlreadyClosed
		}
		drafts, err := tx.CountDraftEntries(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return &shared.DraftEntriesError{Count: drafts}
		}
		closed, err = tx.MarkClosed(ctx, tenantID, periodID, userID, s.now())
		return err
	})
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			TenantID: tenantID,
			ActorID:  userID,
			Action:   "period.close",
			Entity:   "accounting_period",
			EntityID: periodID.String(),
			Meta:     map[string]any{"name": closed.Name},
			At:       s.now(),
		})
	}
	return closed, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Period, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Period, error) {
	return s.repo.List(ctx, tenantID)
}
