package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the dashboard's instrumentation. Per-stream counters are
// labelled with the stream name (customers|orders|lineitems).
type Registry struct {
	reg *prometheus.Registry

	Consumed     *prometheus.CounterVec
	Applied      *prometheus.CounterVec
	Skipped      *prometheus.CounterVec
	DecodeErrors *prometheus.CounterVec

	Customers prometheus.Gauge
	Orders    prometheus.Gauge

	ViewLatencySec *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gdash_messages_consumed_total"}, []string{"stream"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gdash_upserts_applied_total"}, []string{"stream"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gdash_messages_skipped_total"}, []string{"stream"})
	decodeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gdash_decode_errors_total"}, []string{"stream"})

	customers := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gdash_store_customers"})
	orders := prometheus.NewGauge(prometheus.GaugeOpts{Name: "gdash_store_orders"})

	viewLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gdash_view_build_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	r.MustRegister(consumed, applied, skipped, decodeErrors, customers, orders, viewLatency)
	return &Registry{
		reg:            r,
		Consumed:       consumed,
		Applied:        applied,
		Skipped:        skipped,
		DecodeErrors:   decodeErrors,
		Customers:      customers,
		Orders:         orders,
		ViewLatencySec: viewLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
