package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_CountsAndReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewSync(reg)
	b := NewSync(reg)

	a.Flush(OutcomeOK)
	b.Flush(OutcomeOK)
	a.Load(OutcomeFailed, true)
	a.QueueLength(3)
	a.Backoff("flush", 2*time.Second)

	body := scrape(t, reg)
	assert.Contains(t, body, `profile_sync_engine_flushes_total{outcome="ok"} 2`)
	assert.Contains(t, body, `profile_sync_engine_loads_total{kind="full",outcome="failed"} 1`)
	assert.Contains(t, body, `profile_sync_engine_queue_length 3`)
	assert.Contains(t, body, `profile_sync_engine_backoff_wait_seconds_count{op="flush"} 1`)
}

func TestNilReceiversAreNoops(t *testing.T) {
	var s *Sync
	var h *HTTP

	assert.NotPanics(t, func() {
		s.Flush(OutcomeOK)
		s.Load(OutcomeOK, false)
		s.QueueLength(1)
		s.Backoff("load", time.Second)
		h.Observe("/api/profile", http.MethodGet, http.StatusOK, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTP(reg)
	h.Observe("/api/profile", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	assert.Contains(t, scrape(t, reg), `profile_sync_http_requests_total{code="200",method="GET",route="/api/profile"} 1`)
}

func scrape(t *testing.T, g prometheus.Gatherer) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(g).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
