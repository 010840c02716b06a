package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats is the server's own prometheus registry plus the instruments
// the tick loop and command handlers record into
type Stats struct {
	registry *prometheus.Registry

	TickDuration prometheus.Histogram
	ActivePlates prometheus.Gauge
	Boundaries   *prometheus.GaugeVec
	Splits       prometheus.Counter
	Fuses        prometheus.Counter
	Clients      prometheus.Gauge
}

// NewStats creates an attached prometheus registry
func NewStats() *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tectolite_tick_duration_seconds",
			Help:    "Wall time of one full simulation tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		ActivePlates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tectolite_active_plates",
			Help: "Plates currently alive.",
		}),
		Boundaries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tectolite_boundaries",
			Help: "Detected plate boundaries by type.",
		}, []string{"type"}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tectolite_splits_total",
			Help: "Committed plate splits.",
		}),
		Fuses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tectolite_fuses_total",
			Help: "Committed plate fusions.",
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tectolite_websocket_clients",
			Help: "Connected websocket clients.",
		}),
	}

	s.registry.MustRegister(
		s.TickDuration,
		s.ActivePlates,
		s.Boundaries,
		s.Splits,
		s.Fuses,
		s.Clients,
	)

	return s
}

// Handler serves the /metrics endpoint from this registry only
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
