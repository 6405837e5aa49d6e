package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies ledger failures so transports can map them without knowing every sentinel.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindState      Kind = "state"
)

type ledgerError struct {
	kind Kind
	key  string
}

func (e *ledgerError) Error() string { return "accounting: " + e.key }

// Is lets errors.Is match the error's kind in addition to the sentinel itself.
func (e *ledgerError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

func newError(kind Kind, key string) error {
	return &ledgerError{kind: kind, key: key}
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = newError(KindValidation, "journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = newError(KindValidation, "journal requires at least two lines")
	// ErrInvalidLine indicates a line that is not strictly one-sided.
	ErrInvalidLine = newError(KindValidation, "each line must carry either a debit or a credit")
	// ErrInvalidInput wraps struct validation failures.
	ErrInvalidInput = newError(KindValidation, "invalid input")
	// ErrInvalidRange indicates a period whose end is not after its start.
	ErrInvalidRange = newError(KindValidation, "period end date must be after start date")
	// ErrInvalidAccounts indicates unknown, foreign or inactive accounts.
	ErrInvalidAccounts = newError(KindValidation, "accounts missing, inactive or outside tenant")

	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = newError(KindNotFound, "journal entry not found")
	// ErrPeriodNotFound indicates missing period.
	ErrPeriodNotFound = newError(KindNotFound, "accounting period not found")
	// ErrAccountNotFound indicates missing account.
	ErrAccountNotFound = newError(KindNotFound, "account not found")

	// ErrAlreadyConfigured indicates the tenant already has a chart of accounts.
	ErrAlreadyConfigured = newError(KindConflict, "chart of accounts already configured")
	// ErrAlreadyClosed indicates the period was closed before.
	ErrAlreadyClosed = newError(KindConflict, "period already closed")
	// ErrAlreadyVoided indicates the entry was voided before.
	ErrAlreadyVoided = newError(KindConflict, "journal entry already voided")
	// ErrPeriodOverlap indicates the requested period conflicts with an existing range.
	ErrPeriodOverlap = newError(KindConflict, "period overlaps existing range")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = newError(KindConflict, "source already linked")

	// ErrPeriodClosed indicates a write against a closed period.
	ErrPeriodClosed = newError(KindState, "period is closed")
	// ErrInvalidTransition indicates action can't proceed from the current status.
	ErrInvalidTransition = newError(KindState, "invalid status transition")
	// ErrHasDraftEntries indicates a period still holds draft entries.
	ErrHasDraftEntries = newError(KindState, "period has draft entries")
)

// UnbalancedError reports the totals of an entry that failed the balance check.
type UnbalancedError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Auto        bool
}

func (e *UnbalancedError) Error() string {
	head := "accounting: journal lines must balance"
	if e.Auto {
		head = "accounting: auto entry out of balance"
	}
	return fmt.Sprintf("%s (debit %s, credit %s)", head, e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// InvalidLineError points at the offending line (zero based).
type InvalidLineError struct {
	Index int
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("accounting: line %d must carry either a debit or a credit", e.Index)
}

func (e *InvalidLineError) Unwrap() error { return ErrInvalidLine }

// InvalidAccountsError lists account ids that failed the batch lookup.
type InvalidAccountsError struct {
	IDs []uuid.UUID
}

func (e *InvalidAccountsError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("accounting: accounts missing, inactive or outside tenant: %s", strings.Join(ids, ", "))
}

func (e *InvalidAccountsError) Unwrap() error { return ErrInvalidAccounts }

// OverlapError names the existing period that collides with a new one.
type OverlapError struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("accounting: period overlaps %q (%s to %s)", e.Name, e.StartDate.Format(time.DateOnly), e.EndDate.Format(time.DateOnly))
}

func (e *OverlapError) Unwrap() error { return ErrPeriodOverlap }

// DraftEntriesError carries the number of drafts blocking a period close.
type DraftEntriesError struct {
	Count int
}

func (e *DraftEntriesError) Error() string {
	return fmt.Sprintf("accounting: period has %d draft entries", e.Count)
}

func (e *DraftEntriesError) Unwrap() error { return ErrHasDraftEntries }

// KindOf returns the classification of err, or an empty Kind for foreign errors.
func KindOf(err error) Kind {
	for _, k := range []Kind{KindValidation, KindNotFound, KindConflict, KindState} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ""
}
