package gc

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "gc"

// Metrics contains the metrics exposed by this package.
type Metrics struct {
	// Highest consensus round observed.
	CurrentRound metrics.Gauge
	// Number of cleanup broadcasts sent to workers.
	CleanupsBroadcast metrics.Counter
}

// PrometheusMetrics returns Metrics built using the Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		CurrentRound: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "current_round",
			Help:      "Highest consensus round observed.",
		}, []string{}),
		CleanupsBroadcast: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cleanups_broadcast",
			Help:      "Number of cleanup broadcasts sent to workers.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		CurrentRound:      discard.NewGauge(),
		CleanupsBroadcast: discard.NewCounter(),
	}
}
