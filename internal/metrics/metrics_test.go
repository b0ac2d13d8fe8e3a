package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"cmsimport/internal/reconcile"
)

func readCounter(t *testing.T, v *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := v.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func readSummary(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	return m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum()
}

func TestObserveOutcome(t *testing.T) {
	r, err := NewRecorder("", "")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if r.job != defaultJob {
		t.Fatalf("job = %q, want default", r.job)
	}

	r.ObserveOutcome("content", reconcile.Outcome{Action: reconcile.ActionCreated, Attempts: 1})
	r.ObserveOutcome("content", reconcile.Outcome{Action: reconcile.ActionCreated, Attempts: 3})
	r.ObserveOutcome("content", reconcile.Outcome{Action: reconcile.ActionFailed, Attempts: 10})

	if got := readCounter(t, r.rows, "content", "created"); got != 2 {
		t.Fatalf("created rows = %v, want 2", got)
	}
	if got := readCounter(t, r.rows, "content", "failed"); got != 1 {
		t.Fatalf("failed rows = %v, want 1", got)
	}
	count, sum := readSummary(t, r.attempts, "content", "created")
	if count != 2 || sum != 4 {
		t.Fatalf("attempts summary = (%d, %v), want (2, 4)", count, sum)
	}
}

func TestObserveSearchAndRun(t *testing.T) {
	r, err := NewRecorder("job", "")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.ObserveSearch("metadata", 5, 2*time.Second, nil)
	r.ObserveSearch("metadata", 1, time.Second, errors.New("boom"))
	if got := readCounter(t, r.searchCalls, "metadata"); got != 6 {
		t.Fatalf("search calls = %v, want 6", got)
	}
	if count, _ := readSummary(t, r.searchDuration, "metadata", "failure"); count != 1 {
		t.Fatalf("failure observations = %d", count)
	}

	r.ObserveRun("metadata", &reconcile.Report{Outcomes: []reconcile.Outcome{{Action: reconcile.ActionFailed}}}, nil)
	r.ObserveRun("metadata", &reconcile.Report{}, nil)
	if got := readCounter(t, r.runs, "metadata", "partial"); got != 1 {
		t.Fatalf("partial runs = %v", got)
	}
	if got := readCounter(t, r.runs, "metadata", "success"); got != 1 {
		t.Fatalf("successful runs = %v", got)
	}
}

func TestPushDisabledWithoutGateway(t *testing.T) {
	r, err := NewRecorder("job", "")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if r.Enabled() {
		t.Fatal("expected recorder without gateway to be disabled")
	}
	if err := r.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
}

func TestPushSendsToGateway(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		mu.Lock()
		method, path, body = req.Method, req.URL.Path, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r, err := NewRecorder("cmsimport-test", server.URL)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.ObserveOutcome("asset", reconcile.Outcome{Action: reconcile.ActionSkipped})
	if err := r.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", method)
	}
	if path != "/metrics/job/cmsimport-test" {
		t.Fatalf("path = %s", path)
	}
	if !strings.Contains(body, "cmsimport_rows_total") {
		t.Fatalf("pushed body missing rows metric: %q", body)
	}
}

func TestPushReportsGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r, err := NewRecorder("job", server.URL)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := r.Push(); err == nil {
		t.Fatal("expected push error")
	}
}
