package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of tile requests",
	}, []string{"kind"})

	TilesCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_cache_hits_total",
		Help: "Total number of tile store hits",
	}, []string{"kind"})

	TilesCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_cache_misses_total",
		Help: "Total number of tile store misses",
	}, []string{"kind"})

	TilesCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_coalesced_total",
		Help: "Total number of misses that shared an in-flight upstream fetch",
	})

	TilesUpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_upstream_requests_total",
		Help: "Total number of upstream tile requests",
	}, []string{"kind"})

	TilesUpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_upstream_errors_total",
		Help: "Total number of failed upstream tile requests",
	}, []string{"kind"})

	TilesUpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiles_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	TilesStores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_stores_total",
		Help: "Total number of tiles persisted to the store",
	}, []string{"backend"})

	TilesStoreConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_store_conflicts_total",
		Help: "Total number of exclusive-create collisions in the store",
	}, []string{"backend"})

	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiles_store_operation_duration_seconds",
		Help:    "Duration of tile store operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"backend", "operation"})
)
