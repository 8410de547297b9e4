// metrics — Prometheus-метрики сервиса: HTTP-запросы и исходы
// операций аутентификации.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tokenauth"

// Исходы операций для AuthEvent.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics — набор коллекторов сервиса.
// Нулевой указатель допустим: все методы становятся no-op.
type Metrics struct {
	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authEvents      *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		authEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Authentication operations by outcome.",
			},
			[]string{"op", "result"},
		),
	}

	reg.MustRegister(m.inFlight, m.requestsTotal, m.requestDuration, m.authEvents)

	return m
}

// RequestStarted увеличивает счётчик запросов в полёте.
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// ObserveRequest фиксирует завершённый HTTP-запрос.
// route — шаблон маршрута (например, "/auth/login"), а не сырой путь.
func (m *Metrics) ObserveRequest(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}

	code := strconv.Itoa(status)
	m.inFlight.Dec()
	m.requestsTotal.WithLabelValues(method, route, code).Inc()
	m.requestDuration.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

// AuthEvent фиксирует исход операции op (login, register, refresh, logout, authenticate).
func (m *Metrics) AuthEvent(op, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(op, result).Inc()
}
