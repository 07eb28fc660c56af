package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-коллекторов сервиса
type Metrics struct {
	service string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBConnections   *prometheus.GaugeVec

	AvailabilityChecksTotal *prometheus.CounterVec
	BlocksRemovedTotal      *prometheus.CounterVec
	ConductorUpdatesTotal   *prometheus.CounterVec
}

// New регистрирует метрики в глобальном registry (его отдаёт promhttp.Handler)
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует метрики в переданном registry
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		service: serviceName,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		}, []string{"service", "operation", "status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),

		DBConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database connection pool state",
		}, []string{"service", "state"}),

		AvailabilityChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_checks_total",
			Help: "Availability checks by outcome",
		}, []string{"service", "result"}),

		BlocksRemovedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blocked_periods_removed_total",
			Help: "Blocked periods removed by unblock or duplicate cleanup",
		}, []string{"service", "reason"}),

		ConductorUpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conductor_updates_total",
			Help: "Conductor state updates applied to the live cache by source",
		}, []string{"service", "source"}),
	}
}

// ObserveAvailabilityCheck считает результат проверки слота. Методы Observe* безопасны для nil
func (m *Metrics) ObserveAvailabilityCheck(result string) {
	if m == nil {
		return
	}
	m.AvailabilityChecksTotal.WithLabelValues(m.service, result).Inc()
}

// ObserveBlocksRemoved считает удалённые блокировки
func (m *Metrics) ObserveBlocksRemoved(reason string, count int) {
	if m == nil {
		return
	}
	m.BlocksRemovedTotal.WithLabelValues(m.service, reason).Add(float64(count))
}

// ObserveConductorUpdate считает применённые обновления состояния кондуктора
func (m *Metrics) ObserveConductorUpdate(source string) {
	if m == nil {
		return
	}
	m.ConductorUpdatesTotal.WithLabelValues(m.service, source).Inc()
}

// ObserveHTTPRequest счётчик и латентность HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.service, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.service, method, path).Observe(seconds)
}
