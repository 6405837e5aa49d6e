package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// ErrMalformedEvent marks an envelope that can never be posted.
var ErrMalformedEvent = errors.New("integration: malformed event")

// Ledger exposes the journal operation required by integrations.
type Ledger interface {
	CreateAutoEntry(ctx context.Context, in journals.AutoEntryInput) (journals.Entry, error)
}

// ConfigSource provides the tenant accounting configuration.
type ConfigSource interface {
	GetConfigForTenant(ctx context.Context, tenantID uuid.UUID) (*mappings.Config, error)
}

// Hooks turn business events into automatic journal entries. Callers never observe failures.
type Hooks struct {
	ledger  Ledger
	configs ConfigSource
	logger  *slog.Logger
	metrics *Metrics
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, configs ConfigSource, logger *slog.Logger, metrics *Metrics) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{ledger: ledger, configs: configs, logger: logger, metrics: metrics}
}

// HandleInvoiceCreated posts the sale of an invoice.
func (h *Hooks) HandleInvoiceCreated(ctx context.Context, tenantID uuid.UUID, evt InvoiceEvent) {
	_ = h.apply(ctx, tenantID, KindInvoiceCreated, DeriveInvoiceCreated(evt))
}

// HandleInvoiceCancelled posts the cancellation of an invoice.
func (h *Hooks) HandleInvoiceCancelled(ctx context.Context, tenantID uuid.UUID, evt InvoiceEvent) {
	_ = h.apply(ctx, tenantID, KindInvoiceCancelled, DeriveInvoiceCancelled(evt))
}

// HandlePaymentReceived posts a customer payment.
func (h *Hooks) HandlePaymentReceived(ctx context.Context, tenantID uuid.UUID, evt PaymentEvent) {
	_ = h.apply(ctx, tenantID, KindPaymentReceived, DerivePaymentReceived(evt))
}

// HandlePurchaseReceived posts a received purchase order.
func (h *Hooks) HandlePurchaseReceived(ctx context.Context, tenantID uuid.UUID, evt PurchaseEvent) {
	_ = h.apply(ctx, tenantID, KindPurchaseReceived, DerivePurchaseReceived(evt))
}

// HandleStockAdjusted posts a stock correction.
func (h *Hooks) HandleStockAdjusted(ctx context.Context, tenantID uuid.UUID, evt StockAdjustmentEvent) {
	_ = h.apply(ctx, tenantID, KindStockAdjusted, DeriveStockAdjustment(evt))
}

// HandleCreditNote posts an issued credit note.
func (h *Hooks) HandleCreditNote(ctx context.Context, tenantID uuid.UUID, evt NoteEvent) {
	_ = h.apply(ctx, tenantID, KindCreditNote, DeriveCreditNote(evt))
}

// HandleDebitNote posts an issued debit note.
func (h *Hooks) HandleDebitNote(ctx context.Context, tenantID uuid.UUID, evt NoteEvent) {
	_ = h.apply(ctx, tenantID, KindDebitNote, DeriveDebitNote(evt))
}

// Dispatch routes a queued envelope to its posting rule. It only returns errors worth
// retrying, or ErrMalformedEvent for envelopes that never will succeed.
func (h *Hooks) Dispatch(ctx context.Context, evt Event) error {
	if h == nil {
		return nil
	}
	posting, err := derive(evt)
	if err != nil {
		h.logger.Warn("autopost: drop event", slog.String("event", string(evt.Kind)), slog.Any("error", err))
		h.metrics.observe(evt.Kind, OutcomeRejected)
		return err
	}
	return h.apply(ctx, evt.TenantID, evt.Kind, posting)
}

func derive(evt Event) (Posting, error) {
	if evt.TenantID == uuid.Nil {
		return Posting{}, fmt.Errorf("%w: tenant required", ErrMalformedEvent)
	}
	switch {
	case evt.Kind == KindInvoiceCreated && evt.Invoice != nil:
		return DeriveInvoiceCreated(*evt.Invoice), nil
	case evt.Kind == KindInvoiceCancelled && evt.Invoice != nil:
		return DeriveInvoiceCancelled(*evt.Invoice), nil
	case evt.Kind == KindPaymentReceived && evt.Payment != nil:
		return DerivePaymentReceived(*evt.Payment), nil
	case evt.Kind == KindPurchaseReceived && evt.Purchase != nil:
		return DerivePurchaseReceived(*evt.Purchase), nil
	case evt.Kind == KindStockAdjusted && evt.Stock != nil:
		return DeriveStockAdjustment(*evt.Stock), nil
	case evt.Kind == KindCreditNote && evt.Note != nil:
		return DeriveCreditNote(*evt.Note), nil
	case evt.Kind == KindDebitNote && evt.Note != nil:
		return DeriveDebitNote(*evt.Note), nil
	}
	return Posting{}, fmt.Errorf("%w: kind %q without payload", ErrMalformedEvent, evt.Kind)
}

// apply gates, resolves and submits a posting. Only transient failures are returned.
func (h *Hooks) apply(ctx context.Context, tenantID uuid.UUID, kind Kind, posting Posting) error {
	if h == nil || h.ledger == nil || h.configs == nil {
		return nil
	}
	logger := h.logger.With(
		slog.String("event", string(kind)),
		slog.String("tenant_id", tenantID.String()),
		slog.String("source_ref", posting.SourceRef.String()),
	)

	cfg, err := h.configs.GetConfigForTenant(ctx, tenantID)
	if err != nil {
		logger.Error("autopost: load config", slog.Any("error", err))
		h.metrics.observe(kind, OutcomeFailed)
		return err
	}
	if cfg == nil || !cfg.AutoGenerateEntries {
		logger.Warn("autopost: automatic entries disabled")
		h.metrics.observe(kind, OutcomeDisabled)
		return nil
	}
	if len(posting.Lines) == 0 {
		logger.Debug("autopost: nothing to post")
		h.metrics.observe(kind, OutcomeSkipped)
		return nil
	}
	lines, missing := posting.Resolve(cfg)
	if len(missing) > 0 {
		logger.Warn("autopost: roles not mapped", slog.Any("roles", missing))
		h.metrics.observe(kind, OutcomeUnmapped)
		return nil
	}

	ref := posting.SourceRef
	entry, err := h.ledger.CreateAutoEntry(ctx, journals.AutoEntryInput{
		TenantID:    tenantID,
		Date:        posting.Date,
		Description: posting.Description,
		Source:      posting.Source,
		SourceRef:   &ref,
		Refs:        posting.Refs,
		Lines:       lines,
	})
	switch {
	case err == nil:
		logger.Info("autopost: entry posted", slog.String("entry_number", entry.EntryNumber))
		h.metrics.observe(kind, OutcomePosted)
		return nil
	case errors.Is(err, shared.ErrSourceAlreadyLinked):
		logger.Info("autopost: already posted")
		h.metrics.observe(kind, OutcomeDuplicate)
		return nil
	case shared.KindOf(err) != "":
		logger.Warn("autopost: entry rejected", slog.Any("error", err))
		h.metrics.observe(kind, OutcomeRejected)
		return nil
	default:
		logger.Error("autopost: create entry", slog.Any("error", err))
		h.metrics.observe(kind, OutcomeFailed)
		return err
	}
}
