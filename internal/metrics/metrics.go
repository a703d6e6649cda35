package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
// All methods are safe on a nil *Collector.
type Collector struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec   // collaborator, outcome
	Estimates        *prometheus.CounterVec   // mode, outcome
	RankingDuration  *prometheus.HistogramVec // mode
	StationsSynced   prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railpulse_upstream_requests_total",
			Help: "Upstream rail API calls by collaborator and outcome.",
		}, []string{"collaborator", "outcome"}),
		Estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "railpulse_estimates_total",
			Help: "Per-train estimation outcomes by ranking mode.",
		}, []string{"mode", "outcome"}),
		RankingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "railpulse_ranking_duration_seconds",
			Help:    "Wall time of a full upcoming/next ranking pass, fetches included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"mode"}),
		StationsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railpulse_stations_synced_total",
			Help: "Station directory rows written by the sync cycle.",
		}),
	}

	reg.MustRegister(
		c.UpstreamRequests,
		c.Estimates,
		c.RankingDuration,
		c.StationsSynced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.reg
}

func (c *Collector) ObserveUpstream(collaborator string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.UpstreamRequests.WithLabelValues(collaborator, outcome).Inc()
}

func (c *Collector) ObserveEstimate(mode, outcome string) {
	if c == nil {
		return
	}
	c.Estimates.WithLabelValues(mode, outcome).Inc()
}

func (c *Collector) ObserveRanking(mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.RankingDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (c *Collector) AddStationsSynced(n int) {
	if c == nil {
		return
	}
	c.StationsSynced.Add(float64(n))
}
