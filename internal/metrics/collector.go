// internal/metrics/collector.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the launchpad metric set. Construct one per process; the
// registry defaults to prometheus.DefaultRegisterer so promhttp picks the
// metrics up without extra wiring.
type Collector struct {
	registry prometheus.Registerer
}

// NewCollector registers the metric set and returns the collector.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.DefaultRegisterer}
	c.register()
	return c
}

// NewCollectorWith registers against an explicit registry. Used by tests.
func NewCollectorWith(registry *prometheus.Registry) *Collector {
	c := &Collector{registry: registry}
	c.register()
	return c
}

func (c *Collector) register() {
	for _, metric := range []prometheus.Collector{
		tradeCounter,
		tradeDuration,
		graduationCounter,
		launchCounter,
		reserveGauge,
	} {
		if err := c.registry.Register(metric); err != nil {
			// Already registered by a previous collector in the same process.
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}

// RecordTrade records one trade attempt.
func (c *Collector) RecordTrade(side string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	tradeCounter.WithLabelValues(side, result).Inc()
	tradeDuration.WithLabelValues(side).Observe(duration.Seconds())
}

// RecordLaunch records a launch creation.
func (c *Collector) RecordLaunch() {
	launchCounter.Inc()
}

// RecordGraduation records a completed migration.
func (c *Collector) RecordGraduation() {
	graduationCounter.Inc()
}

// SetReserves updates the reserve gauges for a pool.
func (c *Collector) SetReserves(poolID string, tokenReserve, assetReserve uint64) {
	reserveGauge.WithLabelValues(poolID, "token").Set(float64(tokenReserve))
	reserveGauge.WithLabelValues(poolID, "asset").Set(float64(assetReserve))
}
