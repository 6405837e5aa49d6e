package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// Dispatcher is the bridge entry point used by the worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt integration.Event) error
}

// AutopostJob feeds queued business events into the posting bridge.
type AutopostJob struct {
	Dispatcher Dispatcher
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewAutopostJob initialises the autopost handler.
func NewAutopostJob(dispatcher Dispatcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *AutopostJob {
	return &AutopostJob{Dispatcher: dispatcher, Logger: logger, Metrics: metrics}
}

// Handle decodes the envelope and dispatches it. Malformed envelopes are not retried.
func (j *AutopostJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("autopost: handler not configured")
	}
	var evt integration.Event
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		j.logger().Warn("autopost: decode payload", slog.Any("error", err))
		return fmt.Errorf("autopost: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskLedgerAutopost)
	err := j.Dispatcher.Dispatch(ctx, evt)
	if errors.Is(err, integration.ErrMalformedEvent) {
		return tracker.End(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
	}
	return tracker.End(err)
}

func (j *AutopostJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
