// Package metrics holds the Prometheus collectors for the studio. All methods
// accept a nil receiver so instrumented packages work without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studio"

// Studio groups the collectors.
type Studio struct {
	liveChains    prometheus.Gauge
	paramUpdates  *prometheus.CounterVec
	captures      *prometheus.CounterVec
	decodes       *prometheus.CounterVec
	renderSeconds prometheus.Histogram
	remoteSeconds *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Studio {
	s := &Studio{
		liveChains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_chains",
			Help:      "Track chains currently wired into the master bus.",
		}),
		paramUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "param_updates_total",
			Help:      "Parameter changes accepted, by parameter.",
		}, []string{"param"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_sessions_total",
			Help:      "Capture attempts, by outcome.",
		}, []string{"outcome"}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Decode calls, by outcome.",
		}, []string{"outcome"}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_block_seconds",
			Help:      "Time spent rendering one block of the master bus.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		remoteSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_seconds",
			Help:      "Latency of generative service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			s.liveChains,
			s.paramUpdates,
			s.captures,
			s.decodes,
			s.renderSeconds,
			s.remoteSeconds,
		)
	}
	return s
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *Studio) SetLiveChains(n int) {
	if s == nil {
		return
	}
	s.liveChains.Set(float64(n))
}

func (s *Studio) ParamUpdate(param string) {
	if s == nil {
		return
	}
	s.paramUpdates.WithLabelValues(param).Inc()
}

func (s *Studio) CaptureSession(outcome string) {
	if s == nil {
		return
	}
	s.captures.WithLabelValues(outcome).Inc()
}

func (s *Studio) Decode(outcome string) {
	if s == nil {
		return
	}
	s.decodes.WithLabelValues(outcome).Inc()
}

func (s *Studio) ObserveRender(d time.Duration) {
	if s == nil {
		return
	}
	s.renderSeconds.Observe(d.Seconds())
}

func (s *Studio) ObserveRemote(op, status string, d time.Duration) {
	if s == nil {
		return
	}
	s.remoteSeconds.WithLabelValues(op, status).Observe(d.Seconds())
}
