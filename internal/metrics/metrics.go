// Package metrics holds the Prometheus collectors of the sync daemon and the
// profile server.
//
// Collectors are registered on the supplied Registerer; a collector that is
// already registered (a second engine in the same process, tests) is reused.
// Every method is safe on a nil receiver so components can run without
// metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "profile_sync"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeFatal   = "fatal"
	OutcomeSkipped = "skipped"
)

// Sync are the engine collectors.
type Sync struct {
	flushes     *prometheus.CounterVec
	loads       *prometheus.CounterVec
	queueLength prometheus.Gauge
	backoffWait *prometheus.HistogramVec
}

// NewSync registers the engine collectors on reg.
func NewSync(reg prometheus.Registerer) *Sync {
	return &Sync{
		flushes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "flushes_total",
			Help:      "Flush attempts by outcome.",
		}, []string{"outcome"})),
		loads: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "loads_total",
			Help:      "Profile loads by outcome and kind (full or incremental).",
		}, []string{"outcome", "kind"})),
		queueLength: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "queue_length",
			Help:      "Pending updates not yet acknowledged by the server.",
		})),
		backoffWait: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "backoff_wait_seconds",
			Help:      "Scheduled retry delays.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}, []string{"op"})),
	}
}

func (s *Sync) Flush(outcome string) {
	if s == nil {
		return
	}
	s.flushes.WithLabelValues(outcome).Inc()
}

func (s *Sync) Load(outcome string, full bool) {
	if s == nil {
		return
	}
	kind := "incremental"
	if full {
		kind = "full"
	}
	s.loads.WithLabelValues(outcome, kind).Inc()
}

func (s *Sync) QueueLength(n int) {
	if s == nil {
		return
	}
	s.queueLength.Set(float64(n))
}

func (s *Sync) Backoff(op string, wait time.Duration) {
	if s == nil {
		return
	}
	s.backoffWait.WithLabelValues(op).Observe(wait.Seconds())
}

// HTTP are the profile server request collectors.
type HTTP struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTP registers the server request collectors on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	return &HTTP{
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Handled requests by route, method and status code.",
		}, []string{"route", "method", "code"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "Request handling latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"route"})),
	}
}

func (h *HTTP) Observe(route, method string, code int, elapsed time.Duration) {
	if h == nil {
		return
	}
	h.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	h.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
