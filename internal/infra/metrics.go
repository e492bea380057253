package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide collectors, exposed on GET /metrics.
var (
	SalesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "sales_posted_total",
		Help:      "Sales committed, by payment method.",
	}, []string{"payment_method"})

	SalesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "sales_rejected_total",
		Help:      "Sale postings that did not commit, by error kind.",
	}, []string{"kind"})

	UnitsAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "units_allocated_total",
		Help:      "Units deducted from inventory batches by sale posting.",
	})

	BarcodeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "barcode_cache_lookups_total",
		Help:      "Barcode lookups served from cache (hit) or database (miss).",
	}, []string{"result"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "llm_requests_total",
		Help:      "Assistant completions, by outcome.",
	}, []string{"outcome"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "jobs_processed_total",
		Help:      "Background jobs handled by the worker pool, by type and outcome.",
	}, []string{"type", "outcome"})

	BatchesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pharmacyos",
		Name:      "batches_expired_total",
		Help:      "Batches flipped to expired by the sweeper.",
	})
)
