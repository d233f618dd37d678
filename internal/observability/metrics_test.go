package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsAggregateAndSnapshotSignals(t *testing.T) {
	m := NewMetrics()
	m.ObserveAggregateOperation("material.reconcile", "success", 5*time.Millisecond)
	m.IncAggregateConflict("material.reconcile")
	m.IncSnapshotDropped()
	m.ObserveUpload("ok", 10)

	if got := testutil.ToFloat64(m.aggregateConflicts.WithLabelValues("material.reconcile")); got != 1 {
		t.Fatalf("conflicts: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.snapshotDropped); got != 1 {
		t.Fatalf("snapshot dropped: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.uploadBytes); got != 10 {
		t.Fatalf("upload bytes: want=10 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "materials_aggregate_conflicts_total") {
		t.Fatalf("exposition missing aggregate conflicts metric")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.IncPurgeFailure()
	m.SetSnapshotQueueDepth(3)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil handler status: want=503 got=%d", rec.Code)
	}
}
