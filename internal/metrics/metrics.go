// Package metrics exposes the Prometheus collectors of the chat backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the custom collectors of the service
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent       *prometheus.CounterVec
	MessagesRead       prometheus.Counter
	ChatsCreated       prometheus.Counter
	RealtimeClients    prometheus.Gauge
	RealtimeDelivered  *prometheus.CounterVec
	RealtimeDropped    *prometheus.CounterVec
	PushNotifications  *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchchat_messages_sent_total",
				Help: "Total number of messages persisted by type",
			},
			[]string{"type"},
		),
		MessagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchchat_messages_read_total",
			Help: "Total number of messages marked as read",
		}),
		ChatsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchchat_chats_created_total",
			Help: "Total number of chats created",
		}),
		RealtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchchat_realtime_clients",
			Help: "Number of connected realtime clients",
		}),
		RealtimeDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchchat_realtime_events_delivered_total",
				Help: "Total number of realtime events queued for delivery by event",
			},
			[]string{"event"},
		),
		RealtimeDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchchat_realtime_events_dropped_total",
				Help: "Total number of realtime events dropped because a client queue was full",
			},
			[]string{"event"},
		),
		PushNotifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchchat_push_notifications_total",
				Help: "Total number of push notifications by outcome",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchchat_http_requests_total",
				Help: "Total number of HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
		HTTPRequestSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchchat_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MessagesSent,
		m.MessagesRead,
		m.ChatsCreated,
		m.RealtimeClients,
		m.RealtimeDelivered,
		m.RealtimeDropped,
		m.PushNotifications,
		m.HTTPRequestsTotal,
		m.HTTPRequestSeconds,
	)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
