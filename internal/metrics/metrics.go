// Package metrics holds the Prometheus collectors for the engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lernbuddy"

// Metrics groups every collector the engine reports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	GenerationAttempts *prometheus.CounterVec
	GenerationLatency  *prometheus.HistogramVec
	FallbackUsed       *prometheus.CounterVec
	SessionsStarted    *prometheus.CounterVec
	SessionsFinished   *prometheus.CounterVec
	AnswersSubmitted   prometheus.Counter
	SessionScore       prometheus.Histogram
	ProfileAnalyses    *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GenerationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Generation attempts by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		GenerationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_attempt_seconds",
			Help:      "Latency of single generation attempts.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"purpose"}),
		FallbackUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_content_total",
			Help:      "Times deterministic fallback content replaced generated content.",
		}, []string{"kind"}),
		SessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "test_sessions_started_total",
			Help:      "Test sessions created, by content source.",
		}, []string{"source"}),
		SessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "test_sessions_finished_total",
			Help:      "Test sessions completed, by performance level.",
		}, []string{"level"}),
		AnswersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_submitted_total",
			Help:      "Answer submissions accepted.",
		}),
		SessionScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "test_session_score",
			Help:      "Final session scores in percent.",
			Buckets:   []float64{10, 25, 50, 60, 75, 90, 100},
		}),
		ProfileAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_analyses_total",
			Help:      "Learning profile lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.GenerationAttempts,
		m.GenerationLatency,
		m.FallbackUsed,
		m.SessionsStarted,
		m.SessionsFinished,
		m.AnswersSubmitted,
		m.SessionScore,
		m.ProfileAnalyses,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAttempt(purpose, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues(purpose, outcome).Inc()
	m.GenerationLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *Metrics) ObserveFallback(kind string) {
	if m == nil {
		return
	}
	m.FallbackUsed.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSessionStarted(source string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveSessionFinished(level string, score float64) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(level).Inc()
	m.SessionScore.Observe(score)
}

func (m *Metrics) ObserveAnswer() {
	if m == nil {
		return
	}
	m.AnswersSubmitted.Inc()
}

func (m *Metrics) ObserveProfile(result string) {
	if m == nil {
		return
	}
	m.ProfileAnalyses.WithLabelValues(result).Inc()
}
