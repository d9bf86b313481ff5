// Package metrics defines the Prometheus collectors exported by auditbot.
//
// Collectors are registered on a caller-supplied registry so tests and the
// local simulator can use isolated registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auditbot"

// Delivery outcome label values.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// EventsTotal counts inbound engine events.
	// Labels: event (start, category, answer, text, cancel), result (ok, rejected, ignored)
	EventsTotal *prometheus.CounterVec

	// DeliveriesTotal counts collector submissions by outcome.
	DeliveriesTotal *prometheus.CounterVec

	// DeliveryDuration measures collector round trips.
	DeliveryDuration prometheus.Histogram

	// DeliveriesInFlight tracks submissions not yet finished.
	DeliveriesInFlight prometheus.Gauge

	// ChecklistsFinished counts completed traversals by category.
	ChecklistsFinished *prometheus.CounterVec

	// UpdatesTotal counts Telegram updates received by kind.
	UpdatesTotal *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "events_total",
				Help:      "Checklist events handled by kind and result",
			},
			[]string{"event", "result"},
		),
		DeliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "submissions_total",
				Help:      "Answer records sent to the collector by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "duration_seconds",
				Help:      "Collector request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		DeliveriesInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "in_flight",
				Help:      "Collector submissions currently in progress",
			},
		),
		ChecklistsFinished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "checklists_finished_total",
				Help:      "Checklists completed by category",
			},
			[]string{"category"},
		),
		UpdatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telegram",
				Name:      "updates_total",
				Help:      "Telegram updates received by kind",
			},
			[]string{"kind"},
		),
	}
}

// Event records one handled engine event.
func (m *Metrics) Event(event, result string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(event, result).Inc()
}

// Finished records a completed checklist.
func (m *Metrics) Finished(category string) {
	if m == nil {
		return
	}
	m.ChecklistsFinished.WithLabelValues(category).Inc()
}

// DeliveryStarted marks a submission as in flight.
func (m *Metrics) DeliveryStarted() {
	if m == nil {
		return
	}
	m.DeliveriesInFlight.Inc()
}

// DeliveryDone records the outcome and duration of a submission.
func (m *Metrics) DeliveryDone(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.DeliveriesInFlight.Dec()
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
	m.DeliveryDuration.Observe(seconds)
}

// Update records one inbound transport update.
func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(kind).Inc()
}
