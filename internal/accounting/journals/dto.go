package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// LineInput describes a journal line for a create request.
type LineInput struct {
	AccountID    uuid.UUID       `json:"accountId" validate:"required"`
	CostCenterID *uuid.UUID      `json:"costCenterId,omitempty"`
	Description  string          `json:"description" validate:"max=500"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
}

// CreateInput groups fields required to create a manual entry.
type CreateInput struct {
	Date        time.Time    `json:"date" validate:"required"`
	Description string       `json:"description" validate:"required,min=3,max=500"`
	PeriodID    *uuid.UUID   `json:"periodId,omitempty"`
	Refs        DocumentRefs `json:"refs"`
	Lines       []LineInput  `json:"lines" validate:"dive"`
}

// AutoEntryInput is submitted by the posting bridge. TenantID is trusted input.
type AutoEntryInput struct {
	TenantID    uuid.UUID
	Date        time.Time
	Description string
	Source      Source
	SourceRef   *uuid.UUID
	Refs        DocumentRefs
	Lines       []LineInput
}

// ReverseInput wraps parameters for reversal. A nil Date keeps the original date.
type ReverseInput struct {
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ListFilter narrows entry listings.
type ListFilter struct {
	Status Status
	Source Source
	From   *time.Time
	To     *time.Time
	Page   internalShared.Page
}

// checkLines rounds every line to cents and validates the rounded amounts:
// balance first, then per-line exclusivity. Totals are summed from the rounded
// lines so an entry always agrees with what is stored.
func checkLines(in []LineInput, auto bool) ([]Line, decimal.Decimal, decimal.Decimal, error) {
	if len(in) < 2 {
		return nil, decimal.Zero, decimal.Zero, shared.ErrTooFewLines
	}
	lines := make([]Line, 0, len(in))
	debit, credit := decimal.Zero, decimal.Zero
	for i, line := range in {
		rounded := Line{
			LineNo:       i + 1,
			AccountID:    line.AccountID,
			CostCenterID: line.CostCenterID,
			Description:  line.Description,
			Debit:        shared.Round2(line.Debit),
			Credit:       shared.Round2(line.Credit),
		}
		debit = debit.Add(rounded.Debit)
		credit = credit.Add(rounded.Credit)
		lines = append(lines, rounded)
	}
	if !shared.IsBalanced(debit, credit) {
		return nil, debit, credit, &shared.UnbalancedError{TotalDebit: debit, TotalCredit: credit, Auto: auto}
	}
	for idx, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return nil, debit, credit, &shared.InvalidLineError{Index: idx}
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return nil, debit, credit, &shared.InvalidLineError{Index: idx}
		}
	}
	return lines, debit, credit, nil
}

func accountIDs(lines []LineInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	return ids
}
