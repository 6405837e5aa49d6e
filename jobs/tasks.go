package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLedger carries automatic postings so they are not starved by maintenance jobs.
	QueueLedger = "ledger"

	// TaskLedgerAutopost turns a business event into an automatic journal entry.
	TaskLedgerAutopost = "ledger:autopost"
	// TaskLedgerIntegrity scans journal entries for inconsistent totals.
	TaskLedgerIntegrity = "ledger:integrity"

	autopostMaxRetry = 3
)

// IntegrityPayload optionally narrows the integrity scan to a tenant.
type IntegrityPayload struct {
	TenantID *uuid.UUID `json:"tenantId,omitempty"`
}

// NewAutopostTask constructs the queued form of a bridge event.
func NewAutopostTask(evt integration.Event) (*asynq.Task, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerAutopost, data, asynq.Queue(QueueLedger), asynq.MaxRetry(autopostMaxRetry)), nil
}

// NewIntegrityTask constructs an integrity scan task. A nil tenant scans everything.
func NewIntegrityTask(tenantID *uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(IntegrityPayload{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data, asynq.Queue(QueueDefault)), nil
}
