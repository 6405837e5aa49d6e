package integration

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type stubLedger struct {
	inputs []journals.AutoEntryInput
	err    error
}

func (s *stubLedger) CreateAutoEntry(_ context.Context, in journals.AutoEntryInput) (journals.Entry, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return journals.Entry{}, s.err
	}
	return journals.Entry{ID: uuid.New(), TenantID: in.TenantID, EntryNumber: journals.FormatNumber(journals.DefaultPrefix, len(s.inputs))}, nil
}

type stubConfigs struct {
	cfg *mappings.Config
	err error
}

func (s *stubConfigs) GetConfigForTenant(context.Context, uuid.UUID) (*mappings.Config, error) {
	return s.cfg, s.err
}

func enabledConfig(tenantID uuid.UUID) *mappings.Config {
	roles := make(map[mappings.Role]uuid.UUID, len(mappings.AllRoles))
	for _, role := range mappings.AllRoles {
		roles[role] = uuid.New()
	}
	cfg := mappings.NewDefaultConfig(tenantID, roles)
	cfg.AutoGenerateEntries = true
	return &cfg
}

type hooksFixture struct {
	hooks   *Hooks
	ledger  *stubLedger
	configs *stubConfigs
	metrics *Metrics
	tenant  uuid.UUID
}

func newHooksFixture(t *testing.T) *hooksFixture {
	t.Helper()
	tenant := uuid.New()
	ledger := &stubLedger{}
	configs := &stubConfigs{cfg: enabledConfig(tenant)}
	metrics := NewMetrics(prometheus.NewRegistry())
	return &hooksFixture{
		hooks:   NewHooks(ledger, configs, nil, metrics),
		ledger:  ledger,
		configs: configs,
		metrics: metrics,
		tenant:  tenant,
	}
}

func (f *hooksFixture) count(kind Kind, outcome string) float64 {
	return testutil.ToFloat64(f.metrics.autopost.WithLabelValues(string(kind), outcome))
}

func purchase() PurchaseEvent {
	return PurchaseEvent{
		PurchaseOrderID: uuid.New(),
		Number:          "OC-1",
		Subtotal:        dec("600000"),
		Tax:             dec("114000"),
		Total:           dec("714000"),
	}
}

func TestHooksPostResolvedAccounts(t *testing.T) {
	f := newHooksFixture(t)
	evt := purchase()

	f.hooks.HandlePurchaseReceived(context.Background(), f.tenant, evt)

	require.Len(t, f.ledger.inputs, 1)
	in := f.ledger.inputs[0]
	require.Equal(t, f.tenant, in.TenantID)
	require.Equal(t, journals.SourcePurchase, in.Source)
	require.Equal(t, evt.PurchaseOrderID, *in.Refs.PurchaseOrderID)
	require.NotNil(t, in.SourceRef)
	require.Equal(t, DerivePurchaseReceived(evt).SourceRef, *in.SourceRef)
	require.Len(t, in.Lines, 4)
	inventory, _ := f.configs.cfg.Account(mappings.RoleInventory)
	withholding, _ := f.configs.cfg.Account(mappings.RoleWithholdingPayable)
	require.Equal(t, inventory, in.Lines[0].AccountID)
	require.Equal(t, withholding, in.Lines[3].AccountID)
	require.Equal(t, float64(1), f.count(KindPurchaseReceived, OutcomePosted))
}

func TestHooksGating(t *testing.T) {
	f := newHooksFixture(t)
	ctx := context.Background()

	cfg := f.configs.cfg
	f.configs.cfg = nil
	f.hooks.HandlePurchaseReceived(ctx, f.tenant, purchase())
	require.Empty(t, f.ledger.inputs)

	f.configs.cfg = cfg
	cfg.AutoGenerateEntries = false
	f.hooks.HandlePurchaseReceived(ctx, f.tenant, purchase())
	require.Empty(t, f.ledger.inputs)
	require.Equal(t, float64(2), f.count(KindPurchaseReceived, OutcomeDisabled))

	cfg.AutoGenerateEntries = true
	taxAccount := cfg.Accounts[mappings.RoleTaxDeductible]
	delete(cfg.Accounts, mappings.RoleTaxDeductible)
	f.hooks.HandlePurchaseReceived(ctx, f.tenant, purchase())
	require.Empty(t, f.ledger.inputs)
	require.Equal(t, float64(1), f.count(KindPurchaseReceived, OutcomeUnmapped))

	cfg.Accounts[mappings.RoleTaxDeductible] = taxAccount
	f.hooks.HandlePurchaseReceived(ctx, f.tenant, purchase())
	require.Len(t, f.ledger.inputs, 1)
}

func TestHooksOnlyRequireRolesOfEmittedLines(t *testing.T) {
	f := newHooksFixture(t)
	delete(f.configs.cfg.Accounts, mappings.RoleWithholdingPayable)

	evt := purchase()
	evt.Subtotal = dec("500000")
	evt.Tax = dec("95000")
	evt.Total = dec("595000")
	f.hooks.HandlePurchaseReceived(context.Background(), f.tenant, evt)
	require.Len(t, f.ledger.inputs, 1)
}

func TestHooksSkipEmptyPosting(t *testing.T) {
	f := newHooksFixture(t)
	f.hooks.HandleStockAdjusted(context.Background(), f.tenant, StockAdjustmentEvent{StockMovementID: uuid.New(), Quantity: dec("0"), CostPrice: dec("100")})
	require.Empty(t, f.ledger.inputs)
	require.Equal(t, float64(1), f.count(KindStockAdjusted, OutcomeSkipped))
}

func TestHooksSwallowLedgerErrors(t *testing.T) {
	f := newHooksFixture(t)
	ctx := context.Background()
	evt := InvoiceEvent{InvoiceID: uuid.New(), Subtotal: dec("100"), Tax: dec("19"), Total: dec("119")}

	f.ledger.err = &shared.UnbalancedError{TotalDebit: dec("100"), TotalCredit: dec("119"), Auto: true}
	require.NotPanics(t, func() { f.hooks.HandleInvoiceCancelled(ctx, f.tenant, evt) })
	require.Equal(t, float64(1), f.count(KindInvoiceCancelled, OutcomeRejected))
	require.NoError(t, f.hooks.Dispatch(ctx, NewInvoiceCancelled(f.tenant, evt)))

	f.ledger.err = shared.ErrSourceAlreadyLinked
	require.NoError(t, f.hooks.Dispatch(ctx, NewInvoiceCreated(f.tenant, evt)))
	require.Equal(t, float64(1), f.count(KindInvoiceCreated, OutcomeDuplicate))

	boom := errors.New("connection reset")
	f.ledger.err = boom
	f.hooks.HandleInvoiceCreated(ctx, f.tenant, evt)
	require.ErrorIs(t, f.hooks.Dispatch(ctx, NewInvoiceCreated(f.tenant, evt)), boom)
	require.Equal(t, float64(2), f.count(KindInvoiceCreated, OutcomeFailed))
}

func TestHooksConfigFailureIsRetryable(t *testing.T) {
	f := newHooksFixture(t)
	f.configs.err = errors.New("redis down")
	err := f.hooks.Dispatch(context.Background(), NewPaymentReceived(f.tenant, PaymentEvent{PaymentID: uuid.New(), Amount: dec("10")}))
	require.ErrorIs(t, err, f.configs.err)
	require.Empty(t, f.ledger.inputs)
}

func TestDispatchRejectsMalformedEnvelope(t *testing.T) {
	f := newHooksFixture(t)
	ctx := context.Background()

	err := f.hooks.Dispatch(ctx, Event{Kind: KindInvoiceCreated, TenantID: f.tenant})
	require.ErrorIs(t, err, ErrMalformedEvent)

	err = f.hooks.Dispatch(ctx, Event{Kind: "order.shipped", TenantID: f.tenant, Invoice: &InvoiceEvent{}})
	require.ErrorIs(t, err, ErrMalformedEvent)

	err = f.hooks.Dispatch(ctx, NewDebitNote(uuid.Nil, NoteEvent{DocumentID: uuid.New()}))
	require.ErrorIs(t, err, ErrMalformedEvent)
	require.Empty(t, f.ledger.inputs)
}

func TestNilHooksAreNoop(t *testing.T) {
	var h *Hooks
	require.NotPanics(t, func() {
		h.HandleDebitNote(context.Background(), uuid.New(), NoteEvent{DocumentID: uuid.New()})
	})
}

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt Event) {
	p.events = append(p.events, evt)
}

func TestHandlerAcceptsEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	router := chi.NewRouter()
	NewHandler(nil, publisher).MountRoutes(router)

	body := []byte(`{"kind":"payment.received","tenantId":"` + uuid.NewString() + `","payment":{"paymentId":"` + uuid.NewString() + `","amount":"2500","method":"CASH","date":"2025-01-10T00:00:00Z"}}`)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tenant := uuid.New()
	ctx := internalShared.ContextWithIdentity(context.Background(), internalShared.Identity{TenantID: tenant, UserID: uuid.New()})
	req = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body)).WithContext(ctx)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, publisher.events, 1)
	require.Equal(t, tenant, publisher.events[0].TenantID)
	require.Equal(t, PaymentCash, publisher.events[0].Payment.Method)

	req = httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"kind":"payment.received"}`))).WithContext(ctx)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, publisher.events, 1)
}
