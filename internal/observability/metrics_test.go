package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/v1/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/v1/tickets", "POST", "VALIDATION_FAILED")
	m.RecordEvent("ticket.created")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/v1/tickets|GET|200"])
	assert.InDelta(t, 20.0, snap.AvgLatencyMS["/api/v1/tickets|GET|200"], 0.01)
	assert.Equal(t, int64(1), snap.Errors["/api/v1/tickets|POST|VALIDATION_FAILED"])
	assert.Equal(t, int64(1), snap.Events["ticket.created"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordEvent("x")
		_ = m.Snapshot()
	})
}

func TestPrometheusExport(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/tickets/:id", "GET", 404, 5*time.Millisecond)
	m.RecordEvent("ticket.closed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `servicedesk_http_requests_total{method="GET",route="/api/v1/tickets/:id",status="404"} 1`)
	assert.Contains(t, body, `servicedesk_domain_events_total{type="ticket.closed"} 1`)
}
