package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type OrderMetrics struct {
	Placed        *prometheus.CounterVec // result: created | replayed
	Rejected      *prometheus.CounterVec // reason: insufficient_stock | product_not_found | validation
	Cancelled     prometheus.Counter
	StatusChanges *prometheus.CounterVec // status
	HTTPDuration  *prometheus.HistogramVec
}

// New registers the order-service metrics. Pass a private Registerer in
// tests; nil falls back to the default registry.
func New(service string, reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &OrderMetrics{
		Placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nublack",
			Subsystem: service,
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the placement orchestrator.",
		}, []string{"result"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nublack",
			Subsystem: service,
			Name:      "orders_rejected_total",
			Help:      "Placement attempts rejected before any mutation.",
		}, []string{"reason"}),
		Cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nublack",
			Subsystem: service,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled with inventory restored.",
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nublack",
			Subsystem: service,
			Name:      "order_status_changes_total",
			Help:      "Lifecycle transitions applied.",
		}, []string{"status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nublack",
			Subsystem: service,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}

	reg.MustRegister(m.Placed, m.Rejected, m.Cancelled, m.StatusChanges, m.HTTPDuration)
	return m
}

func Handler() http.Handler { return promhttp.Handler() }
