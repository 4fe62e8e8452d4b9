// Package metrics provides Prometheus instrumentation for the canteen client.
//
// Every backend call, cart mutation and order transition is counted against
// a private registry. Expose it with:
//
//	http.Handle("/metrics", metrics.Handler())
//
// or run `canteen metrics --addr :9100`.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "canteen"

// ─────────────────────────────────────────────
// Gateway
// ─────────────────────────────────────────────

var (
	// GatewayCalls counts backend calls by method, path template and outcome
	// ("ok" | "network" | "application" | "unauthorized" | "invalid").
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Total backend calls by outcome.",
		},
		[]string{"method", "path", "outcome"},
	)

	// GatewayDuration tracks backend round-trip latency.
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend calls in seconds.",
			Buckets:   prometheus.DefBuckets, // .005 .01 .025 .05 .1 .25 .5 1 2.5 5 10
		},
		[]string{"method", "path"},
	)

	// GatewayInFlight tracks calls currently waiting on the backend.
	GatewayInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "calls_in_flight",
		Help:      "Number of backend calls currently in flight.",
	})

	// SessionInvalidations counts sessions cleared because of a 401.
	SessionInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "invalidations_total",
		Help:      "Sessions cleared after the backend answered 401.",
	})
)

// ─────────────────────────────────────────────
// Cart & orders
// ─────────────────────────────────────────────

var (
	// CartMutations counts cart operations by op and result ("ok" | "error").
	CartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Total cart mutations.",
		},
		[]string{"op", "result"},
	)

	// OrdersSubmitted counts submit attempts by result
	// ("ok" | "empty_cart" | "unauthenticated" | "failed").
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "submitted_total",
			Help:      "Total order submissions.",
		},
		[]string{"result"},
	)

	// OrderTransitions counts applied status transitions by event and result
	// ("ok" | "rejected" | "failed").
	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "transitions_total",
			Help:      "Total order status transitions.",
		},
		[]string{"event", "result"},
	)

	// CatalogLookups counts catalog reads by resource and source
	// ("cache" | "backend").
	CatalogLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "lookups_total",
			Help:      "Catalog reads by source.",
		},
		[]string{"resource", "source"},
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by canteen.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		GatewayCalls,
		GatewayDuration,
		GatewayInFlight,
		SessionInvalidations,
		CartMutations,
		OrdersSubmitted,
		OrderTransitions,
		CatalogLookups,
	)
}

// Handler exposes the registry in the Prometheus text and OpenMetrics formats.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// ObserveCall records one finished backend call.
func ObserveCall(method, path, outcome string, start time.Time) {
	GatewayCalls.WithLabelValues(method, path, outcome).Inc()
	GatewayDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}

// CartOp records a cart mutation result.
func CartOp(op string, err error) {
	CartMutations.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
