// Package observability exposes Prometheus metrics for the HTTP surface, the
// session lifecycle and outbound mail.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/storefront/internal/core/events"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	AuthEventsTotal    *prometheus.CounterVec
	MailDispatchTotal  *prometheus.CounterVec
	ResetNotifyFailure prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a private registry carrying the Go runtime collectors and the
// storefront metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_auth_events_total",
				Help: "Total number of session and credential events by type",
			},
			[]string{"type"},
		),
		MailDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_mail_dispatch_total",
				Help: "Total number of outbound mail attempts by result",
			},
			[]string{"result"},
		),
		ResetNotifyFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_reset_notify_failures_total",
			Help: "Reset emails that could not be handed to the mailer",
		}),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthEventsTotal, m.MailDispatchTotal, m.ResetNotifyFailure)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveAuthEvents counts every auth event published on bus, whether or not
// anything subscribes to it.
func (m *Metrics) ObserveAuthEvents(bus *events.EventBus) {
	tracked := make(map[string]struct{})
	for _, eventType := range events.AllAuthEventTypes() {
		tracked[eventType] = struct{}{}
	}
	bus.Observe(func(e events.Event) {
		if _, ok := tracked[e.EventType()]; ok {
			m.AuthEventsTotal.WithLabelValues(e.EventType()).Inc()
		}
	})
}

// RecordMailResult matches the dispatcher's result hook.
func (m *Metrics) RecordMailResult(result string) {
	m.MailDispatchTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordResetNotifyFailure() {
	m.ResetNotifyFailure.Inc()
}

// Middleware records request counts and latency labelled by the matched chi route,
// so path parameters do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
