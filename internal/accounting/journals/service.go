package journals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

type Service struct {
	repo   Repository
	audit  AuditPort
	prefix string
	now    func() time.Time
}

func NewService(repo Repository, audit AuditPort, prefix string) *Service {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Service{repo: repo, audit: audit, prefix: prefix, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (Entry, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Entry, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Create records a manual DRAFT entry.
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, in CreateInput) (Entry, error) {
	if len(in.Lines) < 2 {
		return Entry{}, shared.ErrTooFewLines
	}
	if err := shared.ValidateStruct(in); err != nil {
		return Entry{}, err
	}
	lines, debit, credit, err := checkLines(in.Lines, false)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Date:        internalShared.DateOnly(in.Date),
		Description: strings.TrimSpace(in.Description),
		Source:      SourceManual,
		Status:      StatusDraft,
		PeriodID:    in.PeriodID,
		Refs:        in.Refs,
		TotalDebit:  debit,
		TotalCredit: credit,
		CreatedByID: optionalID(actorID),
		Lines:       lines,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.PeriodID != nil {
			period, err := tx.GetPeriodForShare(ctx, tenantID, *in.PeriodID)
			if err != nil {
				return err
			}
			if period.Status != periods.PeriodStatusOpen {
				return shared.ErrPeriodClosed
			}
		}
		found, err := tx.FindAccounts(ctx, tenantID, accountIDs(in.Lines))
		if err != nil {
			return err
		}
		if err := requireActive(accountIDs(in.Lines), found); err != nil {
			return err
		}
		denormalize(entry.Lines, found)
		return s.insert(ctx, tx, &entry)
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, entry, actorID, "journal.create", nil)
	return entry, nil
}

// CreateAutoEntry records an already POSTED entry on behalf of the posting bridge. The entry is
// linked to the open period containing its date when one exists and is never blocked otherwise.
func (s *Service) CreateAutoEntry(ctx context.Context, in AutoEntryInput) (Entry, error) {
	lines, debit, credit, err := checkLines(in.Lines, true)
	if err != nil {
		return Entry{}, err
	}
	now := s.now()
	entry := Entry{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Date:        internalShared.DateOnly(in.Date),
		Description: in.Description,
		Source:      in.Source,
		SourceRef:   in.SourceRef,
		Status:      StatusPosted,
		Refs:        in.Refs,
		TotalDebit:  debit,
		TotalCredit: credit,
		PostedAt:    &now,
		Lines:       lines,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.FindOpenPeriodContaining(ctx, in.TenantID, entry.Date)
		if err != nil {
			return err
		}
		if period != nil {
			entry.PeriodID = &period.ID
		}
		return s.insert(ctx, tx, &entry)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Service) insert(ctx context.Context, tx TxRepository, entry *Entry) error {
	n, err := tx.NextSequence(ctx, entry.TenantID)
	if err != nil {
		return err
	}
	entry.EntryNumber = FormatNumber(s.prefix, n)
	ts := s.now()
	entry.CreatedAt, entry.UpdatedAt = ts, ts
	if err := tx.InsertEntry(ctx, *entry); err != nil {
		return err
	}
	return tx.InsertLines(ctx, entry.ID, entry.Lines)
}

// Post moves a DRAFT entry to POSTED.
func (s *Service) Post(ctx context.Context, tenantID, id, actorID uuid.UUID) (Entry, error) {
	entry, err := s.transition(ctx, tenantID, id, func(e *Entry) error {
		if e.Status != StatusDraft {
			return shared.ErrInvalidTransition
		}
		now := s.now()
		e.Status = StatusPosted
		e.PostedAt = &now
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, entry, actorID, "journal.post", nil)
	return entry, nil
}

// Void marks an entry inert. VOIDED is terminal; no reversing entry is generated.
func (s *Service) Void(ctx context.Context, tenantID, id, actorID uuid.UUID, reason string) (Entry, error) {
	entry, err := s.transition(ctx, tenantID, id, func(e *Entry) error {
		if e.Status == StatusVoided {
			return shared.ErrAlreadyVoided
		}
		now := s.now()
		e.Status = StatusVoided
		e.VoidedAt = &now
		e.VoidReason = strings.TrimSpace(reason)
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, entry, actorID, "journal.void", map[string]any{"reason": entry.VoidReason})
	return entry, nil
}

func (s *Service) transition(ctx context.Context, tenantID, id uuid.UUID, apply func(*Entry) error) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := apply(&current); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, current); err != nil {
			return err
		}
		current.Lines, err = tx.GetLines(ctx, current.ID)
		entry = current
		return err
	})
	return entry, err
}

// Reverse drafts a mirror entry of a POSTED original, swapping debits and credits.
// An original can be reversed once.
func (s *Service) Reverse(ctx context.Context, tenantID, id, actorID uuid.UUID, in ReverseInput) (Entry, error) {
	var reversal Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if original.Status != StatusPosted {
			return shared.ErrInvalidTransition
		}
		lines, err := tx.GetLines(ctx, original.ID)
		if err != nil {
			return err
		}
		date := original.Date
		if in.Date != nil {
			date = internalShared.DateOnly(*in.Date)
		}
		ref := original.ID
		reversal = Entry{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Date:        date,
			Description: defaultReversalMemo(in.Description, original.EntryNumber),
			Source:      SourceReversal,
			SourceRef:   &ref,
			Status:      StatusDraft,
			Refs:        original.Refs,
			TotalDebit:  original.TotalCredit,
			TotalCredit: original.TotalDebit,
			CreatedByID: optionalID(actorID),
			Lines:       reverseLines(lines),
		}
		period, err := tx.FindOpenPeriodContaining(ctx, tenantID, date)
		if err != nil {
			return err
		}
		if period != nil {
			reversal.PeriodID = &period.ID
		}
		return s.insert(ctx, tx, &reversal)
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, reversal, actorID, "journal.reverse", map[string]any{"original_id": id.String()})
	return reversal, nil
}

func (s *Service) record(ctx context.Context, entry Entry, actorID uuid.UUID, action string, extra map[string]any) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{
		"number": entry.EntryNumber,
		"source": string(entry.Source),
		"status": string(entry.Status),
	}
	for k, v := range extra {
		meta[k] = v
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		TenantID: entry.TenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: entry.ID.String(),
		Meta:     meta,
		At:       s.now(),
	})
}

func requireActive(ids []uuid.UUID, found []accounts.Account) error {
	active := make(map[uuid.UUID]bool, len(found))
	for _, a := range found {
		active[a.ID] = a.IsActive
	}
	var invalid []uuid.UUID
	for _, id := range ids {
		if !active[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return &shared.InvalidAccountsError{IDs: invalid}
	}
	return nil
}

func denormalize(lines []Line, found []accounts.Account) {
	byID := make(map[uuid.UUID]accounts.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	for i := range lines {
		a := byID[lines[i].AccountID]
		lines[i].AccountCode = a.Code
		lines[i].AccountName = a.Name
	}
}

func reverseLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.Debit, line.Credit = line.Credit, line.Debit
		out = append(out, line)
	}
	return out
}

func defaultReversalMemo(memo, number string) string {
	if memo = strings.TrimSpace(memo); memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversión de %s", number)
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
