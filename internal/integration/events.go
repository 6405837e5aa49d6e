package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a business event the bridge knows how to post.
type Kind string

const (
	KindInvoiceCreated   Kind = "invoice.created"
	KindInvoiceCancelled Kind = "invoice.cancelled"
	KindPaymentReceived  Kind = "payment.received"
	KindPurchaseReceived Kind = "purchase.received"
	KindStockAdjusted    Kind = "stock.adjusted"
	KindCreditNote       Kind = "credit_note.issued"
	KindDebitNote        Kind = "debit_note.issued"
)

// PaymentMethod mirrors the payment module's method codes.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCard     PaymentMethod = "CARD"
)

// partialReturnReason is the credit note reason code for goods coming back to stock.
const partialReturnReason = "1"

// ItemLine is the stock-relevant part of a sold or returned item. A nil UnitCost means unknown.
type ItemLine struct {
	ProductID uuid.UUID        `json:"productId"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unitCost,omitempty"`
}

// InvoiceEvent is raised when a sales invoice is created or cancelled.
type InvoiceEvent struct {
	InvoiceID      uuid.UUID       `json:"invoiceId"`
	Number         string          `json:"number"`
	Date           time.Time       `json:"date"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	IsPosImmediate bool            `json:"isPosImmediate"`
	Items          []ItemLine      `json:"items,omitempty"`
}

// PaymentEvent is raised when a customer payment is registered.
type PaymentEvent struct {
	PaymentID uuid.UUID       `json:"paymentId"`
	InvoiceID *uuid.UUID      `json:"invoiceId,omitempty"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
}

// PurchaseEvent is raised when a purchase order is received.
type PurchaseEvent struct {
	PurchaseOrderID uuid.UUID       `json:"purchaseOrderId"`
	Number          string          `json:"number"`
	Date            time.Time       `json:"date"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}

// StockAdjustmentEvent is raised on a manual stock correction. Quantity is signed.
type StockAdjustmentEvent struct {
	StockMovementID uuid.UUID       `json:"stockMovementId"`
	ProductID       uuid.UUID       `json:"productId"`
	Date            time.Time       `json:"date"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostPrice       decimal.Decimal `json:"costPrice"`
	Reason          string          `json:"reason,omitempty"`
}

// NoteEvent covers both credit and debit notes issued against an invoice.
type NoteEvent struct {
	DocumentID uuid.UUID       `json:"documentId"`
	InvoiceID  *uuid.UUID      `json:"invoiceId,omitempty"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"date"`
	ReasonCode string          `json:"reasonCode"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	Items      []ItemLine      `json:"items,omitempty"`
}

// Event is the envelope carried through the posting queue. Exactly one payload is set.
type Event struct {
	Kind     Kind                  `json:"kind"`
	TenantID uuid.UUID             `json:"tenantId"`
	Invoice  *InvoiceEvent         `json:"invoice,omitempty"`
	Payment  *PaymentEvent         `json:"payment,omitempty"`
	Purchase *PurchaseEvent        `json:"purchase,omitempty"`
	Stock    *StockAdjustmentEvent `json:"stock,omitempty"`
	Note     *NoteEvent            `json:"note,omitempty"`
}

// NewInvoiceCreated wraps evt for publishing.
func NewInvoiceCreated(tenantID uuid.UUID, evt InvoiceEvent) Event {
	return Event{Kind: KindInvoiceCreated, TenantID: tenantID, Invoice: &evt}
}

// NewInvoiceCancelled wraps evt for publishing.
func NewInvoiceCancelled(tenantID uuid.UUID, evt InvoiceEvent) Event {
	return Event{Kind: KindInvoiceCancelled, TenantID: tenantID, Invoice: &evt}
}

// NewPaymentReceived wraps evt for publishing.
func NewPaymentReceived(tenantID uuid.UUID, evt PaymentEvent) Event {
	return Event{Kind: KindPaymentReceived, TenantID: tenantID, Payment: &evt}
}

// NewPurchaseReceived wraps evt for publishing.
func NewPurchaseReceived(tenantID uuid.UUID, evt PurchaseEvent) Event {
	return Event{Kind: KindPurchaseReceived, TenantID: tenantID, Purchase: &evt}
}

// NewStockAdjusted wraps evt for publishing.
func NewStockAdjusted(tenantID uuid.UUID, evt StockAdjustmentEvent) Event {
	return Event{Kind: KindStockAdjusted, TenantID: tenantID, Stock: &evt}
}

// NewCreditNote wraps evt for publishing.
func NewCreditNote(tenantID uuid.UUID, evt NoteEvent) Event {
	return Event{Kind: KindCreditNote, TenantID: tenantID, Note: &evt}
}

// NewDebitNote wraps evt for publishing.
func NewDebitNote(tenantID uuid.UUID, evt NoteEvent) Event {
	return Event{Kind: KindDebitNote, TenantID: tenantID, Note: &evt}
}

// sourceRef derives the deterministic idempotency key of a document posting.
func sourceRef(kind Kind, documentID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(string(kind)+":"+documentID.String()))
}
