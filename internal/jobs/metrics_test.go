package jobmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	done := time.Date(2025, 4, 1, 3, 0, 5, 0, time.UTC)

	ok := m.Track("ledger:integrity")
	ok.now = func() time.Time { return done }
	require.NoError(t, ok.End(nil))

	boom := errors.New("redis down")
	failed := m.Track("ledger:autopost")
	require.ErrorIs(t, failed.End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:integrity", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:autopost", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("ledger:autopost")))
	require.Equal(t, float64(done.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("ledger:integrity")))
	require.Equal(t, 1, testutil.CollectAndCount(m.lastSuccess))

	m.SetImbalanced(2)
	require.Equal(t, 2.0, testutil.ToFloat64(m.imbalanced))
}

func TestNilMetricsPassErrorsThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ledger:autopost").End(boom), boom)
	require.NotPanics(t, func() { m.SetImbalanced(1) })
}
