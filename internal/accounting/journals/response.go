package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryResponse is the read object exposed to ledger and report consumers.
type EntryResponse struct {
	ID          uuid.UUID       `json:"id"`
	EntryNumber string          `json:"entryNumber"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Source      Source          `json:"source"`
	Status      Status          `json:"status"`
	PeriodID    *uuid.UUID      `json:"periodId"`
	Refs        DocumentRefs    `json:"refs"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	CreatedByID *uuid.UUID      `json:"createdById,omitempty"`
	PostedAt    *time.Time      `json:"postedAt,omitempty"`
	VoidedAt    *time.Time      `json:"voidedAt,omitempty"`
	VoidReason  string          `json:"voidReason,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Lines       []LineResponse  `json:"lines,omitempty"`
}

type LineResponse struct {
	LineNo       int             `json:"lineNo"`
	AccountID    uuid.UUID       `json:"accountId"`
	AccountCode  string          `json:"accountCode"`
	AccountName  string          `json:"accountName"`
	CostCenterID *uuid.UUID      `json:"costCenterId,omitempty"`
	Description  string          `json:"description,omitempty"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
}

// Response renders the entry read object.
func (e Entry) Response() EntryResponse {
	out := EntryResponse{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		Date:        e.Date.Format(time.DateOnly),
		Description: e.Description,
		Source:      e.Source,
		Status:      e.Status,
		PeriodID:    e.PeriodID,
		Refs:        e.Refs,
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		CreatedByID: e.CreatedByID,
		PostedAt:    e.PostedAt,
		VoidedAt:    e.VoidedAt,
		VoidReason:  e.VoidReason,
		CreatedAt:   e.CreatedAt,
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, LineResponse{
			LineNo:       line.LineNo,
			AccountID:    line.AccountID,
			AccountCode:  line.AccountCode,
			AccountName:  line.AccountName,
			CostCenterID: line.CostCenterID,
			Description:  line.Description,
			Debit:        line.Debit,
			Credit:       line.Credit,
		})
	}
	return out
}
