// Package telemetry registers the Prometheus counters covering the two
// failure-classified edges the worker loop cares about (spec §4.6): frames
// received per venue/data-type, and sink outcomes per sink/data-type.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the collector binaries emit.
type Registry struct {
	FramesReceived *prometheus.CounterVec
	SinkSends      *prometheus.CounterVec
	SinkRetries    *prometheus.CounterVec
	SinkEscalations *prometheus.CounterVec
}

// NewRegistry builds and registers the collector's metrics against reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	r := &Registry{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcollector_frames_received_total",
			Help: "Normalized records received from a venue stream.",
		}, []string{"venue", "data_type"}),

		SinkSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcollector_sink_sends_total",
			Help: "Sink send attempts by outcome.",
		}, []string{"sink", "data_type", "outcome"}),

		SinkRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcollector_sink_retries_total",
			Help: "Sink retry attempts after a transient failure.",
		}, []string{"sink", "data_type"}),

		SinkEscalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdcollector_sink_escalations_total",
			Help: "Sink terminal failures that escalated into a process abort.",
		}, []string{"sink", "data_type"}),
	}

	reg.MustRegister(r.FramesReceived, r.SinkSends, r.SinkRetries, r.SinkEscalations)
	return r
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
