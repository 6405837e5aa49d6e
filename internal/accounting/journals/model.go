package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates journal lifecycle values.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
	StatusVoided Status = "VOIDED"
)

// Source names the origin of an entry.
type Source string

const (
	SourceManual          Source = "MANUAL"
	SourceInvoiceSale     Source = "INVOICE_SALE"
	SourceInvoiceCancel   Source = "INVOICE_CANCEL"
	SourceCreditNote      Source = "CREDIT_NOTE"
	SourceDebitNote       Source = "DEBIT_NOTE"
	SourcePayment         Source = "PAYMENT"
	SourcePurchase        Source = "PURCHASE"
	SourceStockAdjustment Source = "STOCK_ADJUSTMENT"
	SourceReversal        Source = "REVERSAL"
)

// DocumentRefs point back at the business object an entry was derived from.
type DocumentRefs struct {
	InvoiceID       *uuid.UUID `json:"invoiceId,omitempty"`
	PaymentID       *uuid.UUID `json:"paymentId,omitempty"`
	PurchaseOrderID *uuid.UUID `json:"purchaseOrderId,omitempty"`
	StockMovementID *uuid.UUID `json:"stockMovementId,omitempty"`
	DianDocumentID  *uuid.UUID `json:"dianDocumentId,omitempty"`
}

// Entry is a balanced set of lines recorded against the ledger.
type Entry struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	EntryNumber string
	Date        time.Time
	Description string
	Source      Source
	// SourceRef is the idempotency key of automatic entries; at most one entry per (source, ref).
	SourceRef   *uuid.UUID
	Status      Status
	PeriodID    *uuid.UUID
	Refs        DocumentRefs
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	CreatedByID *uuid.UUID
	PostedAt    *time.Time
	VoidedAt    *time.Time
	VoidReason  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// Line stores a debit or a credit against one account. AccountCode and AccountName are read-only.
type Line struct {
	LineNo       int
	AccountID    uuid.UUID
	AccountCode  string
	AccountName  string
	CostCenterID *uuid.UUID
	Description  string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
}
