package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rete"

// Metrics groups the settlement layer's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	settlements       *prometheus.CounterVec
	chainCalls        *prometheus.HistogramVec
	chainErrors       *prometheus.CounterVec
	signatures        *prometheus.CounterVec
	reconciled        *prometheus.CounterVec
	realtimeClients   prometheus.Gauge
	realtimeDelivered *prometheus.CounterVec
	realtimeDropped   prometheus.Counter
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement transactions by kind and resulting status.",
		}, []string{"kind", "status"}),
		chainCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_call_duration_seconds",
			Help:      "Latency of chain gateway calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"chain", "method"}),
		chainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_errors_total",
			Help:      "Chain gateway failures by method.",
		}, []string{"chain", "method"}),
		signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_signed_total",
			Help:      "EIP-712 authorizations produced by nonce kind.",
		}, []string{"kind"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_reconciled_total",
			Help:      "Reconciliation outcomes for pending settlements.",
		}, []string{"outcome"}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_clients",
			Help:      "Connected realtime clients on this instance.",
		}),
		realtimeDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_delivered_total",
			Help:      "Realtime events queued to clients by event type.",
		}, []string{"event"}),
		realtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_dropped_total",
			Help:      "Realtime events dropped because a client buffer was full.",
		}),
	}

	reg.MustRegister(
		m.settlements,
		m.chainCalls,
		m.chainErrors,
		m.signatures,
		m.reconciled,
		m.realtimeClients,
		m.realtimeDelivered,
		m.realtimeDropped,
	)
	return m
}

// NewDefault registers on a fresh registry that also exports Go runtime metrics.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SettlementResolved(kind, status string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(kind, status).Inc()
}

// ObserveChainCall records the latency of one gateway call and counts failures.
func (m *Metrics) ObserveChainCall(chain, method string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.chainCalls.WithLabelValues(chain, method).Observe(time.Since(started).Seconds())
	if err != nil {
		m.chainErrors.WithLabelValues(chain, method).Inc()
	}
}

func (m *Metrics) AuthorizationSigned(kind string) {
	if m == nil {
		return
	}
	m.signatures.WithLabelValues(kind).Inc()
}

func (m *Metrics) Reconciled(outcome string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}

func (m *Metrics) EventDelivered(event string) {
	if m == nil {
		return
	}
	m.realtimeDelivered.WithLabelValues(event).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc()
}
