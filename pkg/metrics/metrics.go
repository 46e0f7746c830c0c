// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reservation outcomes.
const (
	OutcomeCreated       = "created"
	OutcomeConflict      = "conflict"
	OutcomeNotLinked     = "not_linked"
	OutcomeInvalid       = "invalid"
	OutcomeInternalError = "error"
)

// Metrics is the set of collectors. All methods are safe on a nil receiver so
// components can be wired without metrics.
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	ReservationsTotal *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	SlotsListed       *prometheus.HistogramVec
}

// New registers collectors with the default registerer.
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors with reg.
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"service", "operation"}),
		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),
		DBConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database connection pool state",
		}, []string{"service", "state"}),
		ReservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_reservations_total",
			Help: "Reservation attempts by outcome",
		}, []string{"service", "outcome"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Applied booking and payment status transitions",
		}, []string{"service", "kind", "to"}),
		SlotsListed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_slots_listed",
			Help:    "Number of slots returned per listing",
			Buckets: []float64{0, 1, 5, 10, 20, 40, 80},
		}, []string{"service"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBConnections,
		m.ReservationsTotal,
		m.TransitionsTotal,
		m.SlotsListed,
	)

	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(elapsed.Seconds())
}

// ObserveQuery records one database call.
func (m *Metrics) ObserveQuery(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(m.serviceName, operation).Inc()
	}
}

// SetConnections publishes connection pool gauges.
func (m *Metrics) SetConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.DBConnections.WithLabelValues(m.serviceName, "open").Set(float64(open))
	m.DBConnections.WithLabelValues(m.serviceName, "in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues(m.serviceName, "idle").Set(float64(idle))
}

// ObserveReservation counts a reservation attempt.
func (m *Metrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(m.serviceName, outcome).Inc()
}

// ObserveTransition counts an applied status change. kind is "status" or "payment".
func (m *Metrics) ObserveTransition(kind, to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(m.serviceName, kind, to).Inc()
}

// ObserveSlotsListed records the size of a slot listing.
func (m *Metrics) ObserveSlotsListed(count int) {
	if m == nil {
		return
	}
	m.SlotsListed.WithLabelValues(m.serviceName).Observe(float64(count))
}
