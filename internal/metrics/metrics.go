// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tradeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "launchpad_trades_total",
			Help: "Number of curve trades by side and result",
		},
		[]string{"side", "result"},
	)

	tradeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "launchpad_trade_duration_seconds",
			Help:    "Latency of curve trade execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"side"},
	)

	graduationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_graduations_total",
			Help: "Number of launches migrated to the external venue",
		},
	)

	launchCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "launchpad_launches_total",
			Help: "Number of launches created",
		},
	)

	reserveGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "launchpad_pool_reserve",
			Help: "Current virtual reserves per pool and side",
		},
		[]string{"pool_id", "side"},
	)
)
