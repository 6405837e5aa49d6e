package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

type stubDispatcher struct {
	events []integration.Event
	err    error
}

func (s *stubDispatcher) Dispatch(_ context.Context, evt integration.Event) error {
	s.events = append(s.events, evt)
	return s.err
}

func TestAutopostTaskRoundTrip(t *testing.T) {
	tenant := uuid.New()
	evt := integration.NewStockAdjusted(tenant, integration.StockAdjustmentEvent{
		StockMovementID: uuid.New(),
		Quantity:        decimal.NewFromInt(-3),
		CostPrice:       decimal.NewFromInt(1000),
	})
	task, err := NewAutopostTask(evt)
	require.NoError(t, err)
	require.Equal(t, TaskLedgerAutopost, task.Type())

	dispatcher := &stubDispatcher{}
	job := NewAutopostJob(dispatcher, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, dispatcher.events, 1)
	got := dispatcher.events[0]
	require.Equal(t, tenant, got.TenantID)
	require.Equal(t, integration.KindStockAdjusted, got.Kind)
	require.True(t, got.Stock.Quantity.Equal(decimal.NewFromInt(-3)))
}

func TestAutopostJobRetryPolicy(t *testing.T) {
	dispatcher := &stubDispatcher{}
	job := NewAutopostJob(dispatcher, nil, nil)
	ctx := context.Background()

	err := job.Handle(ctx, asynq.NewTask(TaskLedgerAutopost, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, dispatcher.events)

	task, err := NewAutopostTask(integration.Event{Kind: integration.KindInvoiceCreated})
	require.NoError(t, err)
	dispatcher.err = integration.ErrMalformedEvent
	require.ErrorIs(t, job.Handle(ctx, task), asynq.SkipRetry)

	dispatcher.err = errors.New("connection refused")
	err = job.Handle(ctx, task)
	require.ErrorIs(t, err, dispatcher.err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Type: task.Type(), Queue: QueueLedger}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientPublishNeverFails(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake, logger: slog.Default()}
	evt := integration.NewPaymentReceived(uuid.New(), integration.PaymentEvent{PaymentID: uuid.New(), Amount: decimal.NewFromInt(10)})

	client.Publish(context.Background(), evt)
	require.Len(t, fake.tasks, 1)
	var decoded integration.Event
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &decoded))
	require.Equal(t, evt.TenantID, decoded.TenantID)

	fake.err = errors.New("redis unavailable")
	require.NotPanics(t, func() { client.Publish(context.Background(), evt) })
	require.Len(t, fake.tasks, 1)
}

type stubScanner struct {
	found  []Imbalance
	tenant *uuid.UUID
}

func (s *stubScanner) FindImbalanced(_ context.Context, tenantID *uuid.UUID) ([]Imbalance, error) {
	s.tenant = tenantID
	return s.found, nil
}

func TestLedgerIntegrityJobReportsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	scanner := &stubScanner{found: []Imbalance{{
		TenantID:    uuid.New(),
		EntryID:     uuid.New(),
		EntryNumber: "AC-00007",
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
		LineDebit:   decimal.NewFromInt(90),
		LineCredit:  decimal.NewFromInt(100),
	}}}
	job := NewLedgerIntegrityJob(scanner, nil, metrics)

	task, err := NewIntegrityTask(nil)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Nil(t, scanner.tenant)

	families, err := reg.Gather()
	require.NoError(t, err)
	var gauge float64
	for _, family := range families {
		if family.GetName() == "odyssey_ledger_imbalanced_entries" {
			gauge = family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	require.Equal(t, float64(1), gauge)

	tenant := uuid.New()
	found, err := job.Run(context.Background(), &tenant)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, tenant, *scanner.tenant)
}

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s.infos[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestHealthReportsQueues(t *testing.T) {
	handler := NewHandler(stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueLedger: {Queue: QueueLedger, Pending: 4, Retry: 1},
	}}, nil)
	rec := httptest.NewRecorder()
	handler.health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body []queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []queueHealth{
		{Queue: QueueLedger, Pending: 4, Retry: 1},
		{Queue: QueueDefault},
	}, body)
}
