// Package telemetry exposes connection level runtime metrics in the Prometheus
// format. It is separate from the /metrics exposition produced by the
// metrics.Collector, whose text format is fixed.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thumbnail"

// Session stages used as the "stage" label of SessionErrors.
const (
	StageRead  = "read"
	StageWrite = "write"
	StagePanic = "panic"
)

type Metrics struct {
	registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	AcceptErrors        prometheus.Counter
	ActiveSessions      prometheus.Gauge
	SessionErrors       *prometheus.CounterVec
	UploadRejections    *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
}

// New builds a registry holding the Go and process collectors plus the
// service's own metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted TCP connections",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Total number of failed accept calls",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions currently being handled",
		}),
		SessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Sessions aborted without a complete response, by stage",
		}, []string{"stage"}),
		UploadRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejections_total",
			Help:      "Uploads rejected before reaching the image transform, by reason",
		}, []string{"reason"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Thumbnail cache lookups, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ConnectionsAccepted,
		m.AcceptErrors,
		m.ActiveSessions,
		m.SessionErrors,
		m.UploadRejections,
		m.CacheLookups,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
