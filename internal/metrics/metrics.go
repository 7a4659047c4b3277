package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the watcher's Prometheus collectors.
type Metrics struct {
	logsVerified     prometheus.Counter
	actionsExtracted prometheus.Counter
	eventsSkipped    *prometheus.CounterVec
	errors           *prometheus.CounterVec
	finalizedHeight  prometheus.Gauge
	processedHeight  prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridgewatch_logs_verified_total",
			Help: "Total number of logs cross-checked against their receipt",
		}),
		actionsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridgewatch_actions_extracted_total",
			Help: "Total number of bridge actions extracted from finalized logs",
		}),
		eventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridgewatch_events_skipped_total",
			Help: "Verified logs that produced no action, by reason",
		}, []string{"reason"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridgewatch_errors_total",
			Help: "Errors encountered, by kind",
		}, []string{"kind"}),
		finalizedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridgewatch_finalized_height",
			Help: "Last finalized block height reported by the provider",
		}),
		processedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridgewatch_processed_height",
			Help: "Last block height fully processed",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.logsVerified,
			m.actionsExtracted,
			m.eventsSkipped,
			m.errors,
			m.finalizedHeight,
			m.processedHeight,
		)
	}
	return m
}

func (m *Metrics) LogsVerified(n int) {
	if m != nil {
		m.logsVerified.Add(float64(n))
	}
}

func (m *Metrics) ActionExtracted() {
	if m != nil {
		m.actionsExtracted.Inc()
	}
}

// EventSkipped counts a log that was not turned into an action.
func (m *Metrics) EventSkipped(reason string) {
	if m != nil {
		m.eventsSkipped.WithLabelValues(reason).Inc()
	}
}

// Error counts an error of the given kind.
func (m *Metrics) Error(kind string) {
	if m != nil {
		m.errors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) FinalizedHeight(h uint64) {
	if m != nil {
		m.finalizedHeight.Set(float64(h))
	}
}

func (m *Metrics) ProcessedHeight(h uint64) {
	if m != nil {
		m.processedHeight.Set(float64(h))
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
