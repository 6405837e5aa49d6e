package integration

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the autopost counter.
const (
	OutcomePosted    = "posted"
	OutcomeDuplicate = "duplicate"
	OutcomeDisabled  = "disabled"
	OutcomeUnmapped  = "unmapped"
	OutcomeSkipped   = "skipped"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics counts bridge outcomes per event kind.
type Metrics struct {
	autopost *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the bridge collectors. A nil registerer uses the default registry once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	autopost := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_autopost_total",
		Help: "Automatic posting attempts partitioned by event and outcome.",
	}, []string{"event", "outcome"})
	registerer.MustRegister(autopost)
	return &Metrics{autopost: autopost}
}

func (m *Metrics) observe(kind Kind, outcome string) {
	if m == nil {
		return
	}
	m.autopost.WithLabelValues(string(kind), outcome).Inc()
}
