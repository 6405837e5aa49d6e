package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

func TestResourceOf(t *testing.T) {
	cases := map[string]string{
		"/api/accounting/journal-entries/{id}/post": "journal-entries",
		"/api/accounting/periods/":                  "periods",
		"/api/integration/events":                   "events",
		"/api/accounting":                           "accounting",
		"/jobs/health":                              "jobs",
		"/metrics":                                  "metrics",
		"/":                                         "root",
		"/{tenant}":                                 "root",
		unmatchedRoute:                              unmatchedRoute,
	}
	for route, want := range cases {
		require.Equal(t, want, ResourceOf(route), route)
	}
}

func TestMiddlewareLabelsByResource(t *testing.T) {
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Route("/api/accounting", func(r chi.Router) {
		r.Route("/journal-entries", func(r chi.Router) {
			r.Post("/{id}/post", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
			})
		})
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounting/journal-entries/abc/post", nil))
		require.Equal(t, http.StatusConflict, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	posted := metrics.requests.WithLabelValues("journal-entries", "/api/accounting/journal-entries/{id}/post", "409")
	require.Equal(t, 2.0, testutil.ToFloat64(posted))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(unmatchedRoute, unmatchedRoute, "404")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.inFlight))
	require.Equal(t, 2, testutil.CollectAndCount(metrics.latency))
}

func TestHandlerExposesLedgerCollectors(t *testing.T) {
	metrics := NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	require.NoError(t, jobs.Track("ledger:integrity").End(nil))
	jobs.SetImbalanced(3)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `odyssey_jobs_total{job="ledger:integrity",status="success"} 1`)
	require.Contains(t, body, "odyssey_ledger_imbalanced_entries 3")
	require.Contains(t, body, "go_goroutines")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	metrics.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
