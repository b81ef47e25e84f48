// Package metrics exposes Prometheus instrumentation for the generation
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kotoba"

// Chapter outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the pipeline collectors and the registry they belong to.
type Metrics struct {
	registry *prometheus.Registry

	textbooksStarted  prometheus.Counter
	textbooksFinished *prometheus.CounterVec
	chapterDuration   *prometheus.HistogramVec
	audioItems        *prometheus.CounterVec
	finalizeRetries   prometheus.Counter
	textbooksSwept    prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		textbooksStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "textbooks_started_total",
			Help:      "Total number of textbooks whose generation started.",
		}),
		textbooksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "textbooks_finished_total",
			Help:      "Total number of textbooks that reached a terminal status, by status.",
		}, []string{"status"}),
		chapterDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chapter_generation_seconds",
			Help:      "Time spent generating and persisting one chapter, by outcome.",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"outcome"}),
		audioItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_items_total",
			Help:      "Audio work items offered to the queue, by result.",
		}, []string{"result"}),
		finalizeRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_retries_total",
			Help:      "Retries of the terminal textbook status write.",
		}),
		textbooksSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "textbooks_swept_total",
			Help:      "Textbooks marked failed after being left in generating.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) TextbookStarted() {
	if m == nil {
		return
	}
	m.textbooksStarted.Inc()
}

func (m *Metrics) TextbookFinished(status string) {
	if m == nil {
		return
	}
	m.textbooksFinished.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveChapter(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chapterDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AudioItems records the result of one fan-out call.
func (m *Metrics) AudioItems(enqueued, failed int) {
	if m == nil {
		return
	}
	m.audioItems.WithLabelValues("enqueued").Add(float64(enqueued))
	m.audioItems.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) FinalizeRetried() {
	if m == nil {
		return
	}
	m.finalizeRetries.Inc()
}

func (m *Metrics) TextbooksSwept(n int) {
	if m == nil {
		return
	}
	m.textbooksSwept.Add(float64(n))
}
