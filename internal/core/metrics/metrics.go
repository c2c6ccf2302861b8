// Package metrics exposes Prometheus counters for the relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ntfyrelay"

// Delivery status label values.
const (
	StatusDelivered = "delivered"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// Metrics holds the relay collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec   // By topic
	badRequestsTotal *prometheus.CounterVec   // By reason: too_large, invalid
	outcomesTotal    *prometheus.CounterVec   // By topic and action
	deliveriesTotal  *prometheus.CounterVec   // By topic and status
	deliveryDuration *prometheus.HistogramVec // By topic
}

// New creates and registers all relay metrics plus Go runtime collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of webhook requests received",
		}, []string{"topic"}),

		badRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bad_requests_total",
			Help:      "Total number of webhook requests rejected before evaluation",
		}, []string{"reason"}),

		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Total number of evaluated events by outcome",
		}, []string{"topic", "action"}), // action: forward, discard

		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "attempts_total",
			Help:      "Total number of notification deliveries by result",
		}, []string{"topic", "status"}), // status: delivered, rejected, failed

		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "duration_seconds",
			Help:      "Notification delivery duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"topic"}),
	}

	for _, c := range []prometheus.Collector{
		m.requestsTotal,
		m.badRequestsTotal,
		m.outcomesTotal,
		m.deliveriesTotal,
		m.deliveryDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordRequest(topic string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(topic).Inc()
}

func (m *Metrics) RecordBadRequest(reason string) {
	if m == nil {
		return
	}
	m.badRequestsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordOutcome(topic, action string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(topic, action).Inc()
}

// RecordDelivery counts one delivery attempt and observes its duration.
func (m *Metrics) RecordDelivery(topic, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(topic, status).Inc()
	m.deliveryDuration.WithLabelValues(topic).Observe(d.Seconds())
}
