// Package metrics owns the Prometheus collectors for plan generation,
// notifications and the refresh worker.
//
// A nil *Metrics is valid and records nothing, so components can be built
// in tests without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mealplanner"

// Trigger labels for plan generation.
const (
	TriggerIntake  = "intake"
	TriggerRefresh = "refresh"
)

// Metrics groups the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	plansGenerated     *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	generationSeconds  prometheus.Histogram
	notifications      *prometheus.CounterVec
	accountsCreated    prometheus.Counter
	submissions        *prometheus.CounterVec
	refreshDuration    prometheus.Histogram
	refreshFamilies    *prometheus.CounterVec
}

// New builds the collectors on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		plansGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_generated_total",
			Help:      "Meal plans generated and stored, by trigger.",
		}, []string{"trigger"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Completion calls that failed or returned no usable text, by trigger.",
		}, []string{"trigger"}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of completion calls.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification emails by template and outcome.",
		}, []string{"template", "outcome"}),
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Member accounts provisioned.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Intake submissions by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Wall time of one refresh cycle across all families.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		refreshFamilies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_families_total",
			Help:      "Families processed by the refresh worker, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.plansGenerated,
		m.generationFailures,
		m.generationSeconds,
		m.notifications,
		m.accountsCreated,
		m.submissions,
		m.refreshDuration,
		m.refreshFamilies,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) PlanGenerated(trigger string) {
	if m == nil {
		return
	}
	m.plansGenerated.WithLabelValues(trigger).Inc()
}

func (m *Metrics) GenerationFailed(trigger string) {
	if m == nil {
		return
	}
	m.generationFailures.WithLabelValues(trigger).Inc()
}

func (m *Metrics) ObserveGeneration(d time.Duration) {
	if m == nil {
		return
	}
	m.generationSeconds.Observe(d.Seconds())
}

// Notification records one delivery attempt. outcome is "sent" or "failed".
func (m *Metrics) Notification(template, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, outcome).Inc()
}

func (m *Metrics) AccountCreated() {
	if m == nil {
		return
	}
	m.accountsCreated.Inc()
}

// Submission records an intake outcome: "accepted", "duplicate", "invalid" or "failed".
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRefreshCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
}

// RefreshFamily records one family's refresh outcome: "ok" or "failed".
func (m *Metrics) RefreshFamily(outcome string) {
	if m == nil {
		return
	}
	m.refreshFamilies.WithLabelValues(outcome).Inc()
}
