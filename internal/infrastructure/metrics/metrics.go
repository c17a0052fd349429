// Package metrics exposes Prometheus instrumentation for the toolkit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelseed/kbutil/internal/domain/biochem"
)

// Metrics bundles the toolkit's Prometheus collectors. Construct one per
// process and share it; collectors are registered exactly once.
type Metrics struct {
	StandardizationsTotal prometheus.Counter
	CompoundsRenamed      *prometheus.CounterVec
	ReactionsRenamed      *prometheus.CounterVec
	TranslationCoverage   *prometheus.GaugeVec
	ExternalCallDuration  *prometheus.HistogramVec
	LLMCallsTotal         *prometheus.CounterVec
}

// New creates and registers the toolkit collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StandardizationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kbutil", Name: "standardizations_total",
			Help: "Number of model standardization runs.",
		}),
		CompoundsRenamed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbutil", Name: "compounds_renamed_total",
			Help: "Metabolites renamed into the target namespace, per model.",
		}, []string{"model"}),
		ReactionsRenamed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbutil", Name: "reactions_renamed_total",
			Help: "Reactions renamed into the target namespace, per model.",
		}, []string{"model"}),
		TranslationCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kbutil", Name: "translation_coverage_fraction",
			Help: "Fraction of entities translated in the latest run, per model and kind.",
		}, []string{"model", "kind"}),
		ExternalCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kbutil", Name: "external_call_duration_seconds",
			Help:    "Latency of calls to external services and tools.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbutil", Name: "llm_calls_total",
			Help: "Language-model calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
	}
	reg.MustRegister(
		m.StandardizationsTotal,
		m.CompoundsRenamed,
		m.ReactionsRenamed,
		m.TranslationCoverage,
		m.ExternalCallDuration,
		m.LLMCallsTotal,
	)
	return m
}

// ObserveStandardization records the outcome of one standardization run.
func (m *Metrics) ObserveStandardization(modelID string, report *biochem.ApplyReport) {
	m.StandardizationsTotal.Inc()
	m.CompoundsRenamed.WithLabelValues(modelID).Add(float64(report.CompoundsTranslated))
	m.ReactionsRenamed.WithLabelValues(modelID).Add(float64(report.ReactionsTranslated))
	m.TranslationCoverage.WithLabelValues(modelID, "compounds").Set(report.CompoundFraction())
	m.TranslationCoverage.WithLabelValues(modelID, "reactions").Set(report.ReactionFraction())
}
