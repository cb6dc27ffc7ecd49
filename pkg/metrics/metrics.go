// Package metrics exposes Prometheus counters for the navigation guard and
// the portal API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the portal's collectors. A zero Recorder is not usable;
// construct one with NewRecorder.
type Recorder struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	redirects *prometheus.CounterVec
	llmCalls  *prometheus.CounterVec
}

// NewRecorder registers the collectors on a fresh registry so tests and the
// server never share global state.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Navigation guard decisions by action and cause.",
		}, []string{"action", "cause"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "guard",
			Name:      "redirects_total",
			Help:      "Navigations issued by the guard by target surface and mode.",
		}, []string{"target", "mode"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "notes",
			Name:      "structure_requests_total",
			Help:      "Note structuring requests by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		r.decisions,
		r.redirects,
		r.llmCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry is served at /metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Decision counts one guard evaluation.
func (r *Recorder) Decision(action, cause string) {
	if cause == "" {
		cause = "none"
	}
	r.decisions.WithLabelValues(action, cause).Inc()
}

// Redirect counts one issued navigation. target must already be reduced to
// a surface path so label cardinality stays bounded.
func (r *Recorder) Redirect(target, mode string) {
	r.redirects.WithLabelValues(target, mode).Inc()
}

// NoteRequest counts one note structuring call.
func (r *Recorder) NoteRequest(outcome string) {
	r.llmCalls.WithLabelValues(outcome).Inc()
}
