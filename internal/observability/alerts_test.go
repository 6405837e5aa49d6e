package observability

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertFile struct {
	Groups []struct {
		Name  string      `yaml:"name"`
		Rules []alertRule `yaml:"rules"`
	} `yaml:"groups"`
}

var (
	metricName = regexp.MustCompile(`odyssey_[a-z_]+`)
	descName   = regexp.MustCompile(`fqName: "([^"]+)"`)
)

// descRecorder registers into a real registry and remembers every metric name.
type descRecorder struct {
	prometheus.Registerer
	names map[string]bool
}

func (d *descRecorder) Register(c prometheus.Collector) error {
	ch := make(chan *prometheus.Desc, 8)
	go func() {
		c.Describe(ch)
		close(ch)
	}()
	for desc := range ch {
		if m := descName.FindStringSubmatch(desc.String()); m != nil {
			d.names[m[1]] = true
		}
	}
	return d.Registerer.Register(c)
}

func (d *descRecorder) MustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := d.Register(c); err != nil {
			panic(err)
		}
	}
}

// exportedMetrics lists every series name the server and worker expose.
func exportedMetrics(t *testing.T) map[string]bool {
	t.Helper()
	metrics := NewMetrics()
	rec := &descRecorder{Registerer: metrics.Registerer(), names: map[string]bool{}}
	jobmetrics.NewMetrics(rec)
	integration.NewMetrics(rec)

	metrics.Middleware(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	families, err := metrics.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		rec.names[mf.GetName()] = true
	}
	return rec.names
}

func runbookAnchors(t *testing.T) map[string]bool {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "docs", "runbook-ledger.md"))
	require.NoError(t, err)
	anchors := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			anchors[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(heading)), " ", "-")] = true
		}
	}
	return anchors
}

func TestLedgerAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "ledger.yml"))
	require.NoError(t, err)

	var file alertFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	require.Len(t, file.Groups, 1)
	require.Equal(t, "ledger", file.Groups[0].Name)

	expected := map[string]string{
		"HighErrorRate":    "critical",
		"AutopostFailures": "warning",
		"LedgerImbalance":  "critical",
	}
	known := exportedMetrics(t)
	anchors := runbookAnchors(t)

	rules := file.Groups[0].Rules
	require.Len(t, rules, len(expected))
	for _, rule := range rules {
		severity, ok := expected[rule.Alert]
		require.True(t, ok, "unexpected rule %q", rule.Alert)
		require.Equal(t, severity, rule.Labels["severity"], rule.Alert)
		require.NotEmpty(t, rule.For, rule.Alert)
		require.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["description"], rule.Alert)

		names := metricName.FindAllString(rule.Expr, -1)
		require.NotEmpty(t, names, "rule %s queries no ledger metric", rule.Alert)
		for _, name := range names {
			require.True(t, known[name], "rule %s references unknown metric %s", rule.Alert, name)
		}

		doc, anchor, found := strings.Cut(rule.Annotations["runbook"], "#")
		require.True(t, found, rule.Alert)
		require.Equal(t, "docs/runbook-ledger.md", doc)
		require.True(t, anchors[anchor], "rule %s points at missing runbook section %s", rule.Alert, anchor)
	}
}
