// Package metrics provides Prometheus metrics for the travel guide services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostalLookupsTotal counts single-candidate lookups by outcome.
	PostalLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "postal_lookups_total",
			Help:      "Postal service lookups by outcome (success, empty, error)",
		},
		[]string{"outcome"},
	)

	// PincodeResolutionsTotal counts whole resolutions by how they ended.
	PincodeResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "pincode_resolutions_total",
			Help:      "Pincode resolutions by source (address, lookup, none, invalid, canceled)",
		},
		[]string{"source"},
	)

	// PostalCacheTotal counts lookup cache hits and misses.
	PostalCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "postal_cache_total",
			Help:      "Postal lookup cache hits and misses",
		},
		[]string{"result"},
	)

	// RecordsProcessedTotal counts worker events by status.
	RecordsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "records_processed_total",
			Help:      "Raw records handled by the worker",
		},
		[]string{"kind", "status"},
	)

	// ListingDuration measures collection load + filter time per listing request.
	ListingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "travelguide",
			Name:      "listing_duration_seconds",
			Help:      "Duration of listing requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// RecordLookup records one postal lookup.
func RecordLookup(outcome string) {
	PostalLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordResolution records how a resolution ended.
func RecordResolution(source string) {
	PincodeResolutionsTotal.WithLabelValues(source).Inc()
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		PostalCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	PostalCacheTotal.WithLabelValues("miss").Inc()
}

// RecordProcessed records a worker event.
func RecordProcessed(kind, status string) {
	RecordsProcessedTotal.WithLabelValues(kind, status).Inc()
}

// ObserveListing records a listing duration.
func ObserveListing(kind string, seconds float64) {
	ListingDuration.WithLabelValues(kind).Observe(seconds)
}
