package bandwidth

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "bandwidth"

// Metrics contains the metrics exposed by this package.
type Metrics struct {
	// Bytes received per monitored channel.
	BytesReceived metrics.Counter
	// Messages received per monitored channel.
	MessagesReceived metrics.Counter
	// Last wave processed by the reporter.
	LastWave metrics.Gauge
}

// PrometheusMetrics returns Metrics built using the Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		BytesReceived: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "bytes_received",
			Help:      "Bytes received per monitored channel.",
		}, []string{"channel"}),
		MessagesReceived: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "messages_received",
			Help:      "Messages received per monitored channel.",
		}, []string{"channel"}),
		LastWave: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_wave",
			Help:      "Last wave processed by the telemetry reporter.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		BytesReceived:    discard.NewCounter(),
		MessagesReceived: discard.NewCounter(),
		LastWave:         discard.NewGauge(),
	}
}
