// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "legalrag"

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// RunsTotal counts finished runs. Labels: outcome (answered, remediated, clarification, cancelled, error)
	RunsTotal *prometheus.CounterVec

	// VerdictsTotal counts verification results. Labels: result
	VerdictsTotal *prometheus.CounterVec

	// FallbacksTotal counts stages that degraded to their default. Labels: stage, kind
	FallbacksTotal *prometheus.CounterVec

	// TriageTotal counts triage decisions. Labels: method, needs_clarification
	TriageTotal *prometheus.CounterVec

	// StageDurationSeconds measures per-stage latency. Labels: stage
	StageDurationSeconds *prometheus.HistogramVec

	// EvidenceSnippets observes the merged evidence size per run.
	EvidenceSnippets prometheus.Histogram
}

// New creates collectors registered on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal outcome.",
		}, []string{"outcome"}),
		VerdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Faithfulness verdicts by result.",
		}, []string{"result"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_fallbacks_total",
			Help:      "Stages that replaced a failed capability call with their default.",
		}, []string{"stage", "kind"}),
		TriageTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_total",
			Help:      "Triage decisions by method.",
		}, []string{"method", "needs_clarification"}),
		StageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		EvidenceSnippets: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evidence_snippets",
			Help:      "Merged evidence snippets per run.",
			Buckets:   prometheus.LinearBuckets(0, 2, 8),
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(outcome string, evidence int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.EvidenceSnippets.Observe(float64(evidence))
}

// ObserveVerdict records a verdict result.
func (m *Metrics) ObserveVerdict(result string) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(result).Inc()
}

// ObserveFallback records a degraded stage.
func (m *Metrics) ObserveFallback(stage, kind string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(stage, kind).Inc()
}

// ObserveTriage records a triage decision.
func (m *Metrics) ObserveTriage(method string, needsClarification bool) {
	if m == nil {
		return
	}
	flag := "false"
	if needsClarification {
		flag = "true"
	}
	m.TriageTotal.WithLabelValues(method, flag).Inc()
}

// ObserveStage records a stage latency.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}
