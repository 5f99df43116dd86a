package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the application
type Metrics struct {
	// WebSocket connection metrics
	ConnectedClients prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	MessageReceived  prometheus.Counter
	MessageSent      prometheus.Counter

	// Dispatch metrics
	RPCRequests        *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	// Provider event metrics
	EventsEmitted *prometheus.CounterVec
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	metrics := &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "walletbridge_connected_clients",
			Help: "The current number of connected clients",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletbridge_connections_total",
			Help: "The total number of WebSocket connections made since server start",
		}),
		MessageReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletbridge_ws_messages_received_total",
			Help: "The total number of WebSocket messages received",
		}),
		MessageSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletbridge_ws_messages_sent_total",
			Help: "The total number of WebSocket messages sent",
		}),
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletbridge_rpc_requests_total",
				Help: "The total number of dispatched RPC requests",
			},
			[]string{"method", "outcome"},
		),
		RPCRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletbridge_rpc_request_duration_seconds",
				Help:    "Dispatch latency of RPC requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletbridge_events_emitted_total",
				Help: "The total number of provider events forwarded to clients",
			},
			[]string{"event"},
		),
	}

	return metrics
}

// RecordRequest tracks one dispatched request and its outcome.
func (m *Metrics) RecordRequest(method string, failed bool, durationSeconds float64) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.RPCRequests.WithLabelValues(method, outcome).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}
