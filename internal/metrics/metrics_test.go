package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LogsVerified(3)
	m.ActionExtracted()
	m.EventSkipped("not_actionable")
	m.Error("provider_integrity")
	m.FinalizedHeight(778)
	m.ProcessedHeight(770)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)

	for _, want := range []string{
		"bridgewatch_logs_verified_total 3",
		"bridgewatch_actions_extracted_total 1",
		`bridgewatch_events_skipped_total{reason="not_actionable"} 1`,
		`bridgewatch_errors_total{kind="provider_integrity"} 1`,
		"bridgewatch_finalized_height 778",
		"bridgewatch_processed_height 770",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.LogsVerified(1)
	m.ActionExtracted()
	m.EventSkipped("x")
	m.Error("x")
	m.FinalizedHeight(1)
	m.ProcessedHeight(1)
}
