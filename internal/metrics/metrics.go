package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SyncHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "walletindexer",
		Name:      "sync_height",
		Help:      "Local header chain height.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "walletindexer",
		Name:      "mempool_size",
		Help:      "Number of unconfirmed transactions currently tracked by the mempool overlay.",
	})

	TouchedAddressesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walletindexer",
		Name:      "touched_addresses_total",
		Help:      "Total touchedAddress events emitted.",
	})

	RpcRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletindexer",
		Name:      "rpc_requests_total",
		Help:      "Node RPC calls issued, by method.",
	}, []string{"method"})

	RpcErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walletindexer",
		Name:      "rpc_errors_total",
		Help:      "Node RPC calls that returned an error, by method.",
	}, []string{"method"})

	BlocksImportedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walletindexer",
		Name:      "blocks_imported_total",
		Help:      "Total blocks applied forward by the synchronizer.",
	})

	BlocksRevertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walletindexer",
		Name:      "blocks_reverted_total",
		Help:      "Total blocks reverted by the synchronizer (reorg depth).",
	})

	CatchUpDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "walletindexer",
		Name:      "catchup_duration_seconds",
		Help:      "Wall-clock duration of one block import or revert.",
		Buckets:   prometheus.DefBuckets,
	})

	RpcLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walletindexer",
		Name:      "rpc_latency_seconds",
		Help:      "Round-trip latency of node RPC calls, by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		SyncHeight,
		MempoolSize,
		TouchedAddressesTotal,
		RpcRequestsTotal,
		RpcErrorsTotal,
		BlocksImportedTotal,
		BlocksRevertedTotal,
		CatchUpDurationSeconds,
		RpcLatencySeconds,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
