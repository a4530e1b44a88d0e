package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodie_orders_created_total",
		Help: "Total number of orders created at checkout",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodie_order_transitions_total",
		Help: "Order status transitions applied, by target status",
	}, []string{"to"})

	OrderTransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodie_order_transitions_rejected_total",
		Help: "Order status transitions rejected by the lifecycle table or a concurrent writer",
	}, []string{"from", "to"})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodie_payments_total",
		Help: "Payment state changes, by resulting status and method",
	}, []string{"status", "method"})

	TillOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodie_till_opened_total",
		Help: "Total number of tills opened",
	})

	TillClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodie_till_closed_total",
		Help: "Total number of tills closed",
	})

	TillDifference = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodie_till_difference",
		Help: "Difference between counted and expected amount at the last till close, by payment method",
	}, []string{"method"})

	CatalogCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodie_catalog_circuit_state",
		Help: "Catalog circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"circuit"})

	CatalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodie_catalog_cache_total",
		Help: "Catalog cache lookups, by result",
	}, []string{"result"})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodie_jobs_processed_total",
		Help: "Background jobs processed, by type and outcome",
	}, []string{"type", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodie_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
