// internal/metrics/collector_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	collector := NewCollectorWith(prometheus.NewRegistry())

	buys := testutil.ToFloat64(tradeCounter.WithLabelValues("buy", "success"))
	failures := testutil.ToFloat64(tradeCounter.WithLabelValues("sell", "failure"))

	collector.RecordTrade("buy", 5*time.Millisecond, true)
	collector.RecordTrade("buy", 5*time.Millisecond, true)
	collector.RecordTrade("sell", time.Millisecond, false)

	assert.Equal(t, buys+2, testutil.ToFloat64(tradeCounter.WithLabelValues("buy", "success")))
	assert.Equal(t, failures+1, testutil.ToFloat64(tradeCounter.WithLabelValues("sell", "failure")))

	launches := testutil.ToFloat64(launchCounter)
	graduations := testutil.ToFloat64(graduationCounter)
	collector.RecordLaunch()
	collector.RecordGraduation()
	assert.Equal(t, launches+1, testutil.ToFloat64(launchCounter))
	assert.Equal(t, graduations+1, testutil.ToFloat64(graduationCounter))
}

func TestCollector_ReserveGauge(t *testing.T) {
	collector := NewCollectorWith(prometheus.NewRegistry())

	collector.SetReserves("pool-1", 153_285_715, 7_000)
	assert.Equal(t, float64(153_285_715), testutil.ToFloat64(reserveGauge.WithLabelValues("pool-1", "token")))
	assert.Equal(t, float64(7_000), testutil.ToFloat64(reserveGauge.WithLabelValues("pool-1", "asset")))

	collector.SetReserves("pool-1", 100, 200)
	assert.Equal(t, float64(100), testutil.ToFloat64(reserveGauge.WithLabelValues("pool-1", "token")))
}

func TestCollector_DoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		NewCollectorWith(registry)
		NewCollectorWith(registry)
	})
}
