package relay

import (
	"sync"

	"github.com/dominant-strategies/go-ethrelay/metrics_config"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	headersRelayed   prometheus.Counter
	headersRejected  prometheus.Counter
	receiptsVerified prometheus.Counter
	reorgs           prometheus.Counter
	bestNumber       prometheus.Gauge
	verifyTimer      prometheus.Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		headersRelayed = metrics_config.NewCounter("relay_headers_relayed", "Headers accepted by the relay")
		headersRejected = metrics_config.NewCounter("relay_headers_rejected", "Headers rejected by the relay")
		receiptsVerified = metrics_config.NewCounter("relay_receipts_verified", "Receipt proofs verified")
		reorgs = metrics_config.NewCounter("relay_reorgs", "Canonical chain reorganisations")
		bestNumber = metrics_config.NewGauge("relay_best_number", "Number of the best relayed header")
		verifyTimer = metrics_config.NewHistogram("relay_header_verify_seconds", "Time spent verifying a relayed header")
	})
}
