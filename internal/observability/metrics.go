// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the LitScout Prometheus collectors.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EventsDropped     prometheus.Counter
	BridgeRequests    *prometheus.CounterVec
	StreamClients     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "litscout_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "litscout_auth_operation_duration_seconds",
				Help:    "Auth operation latency in seconds, including the remote call",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "litscout_events_dropped_total",
			Help: "Total number of events dropped because a subscriber buffer was full",
		}),
		BridgeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "litscout_bridge_requests_total",
				Help: "Total number of bridge HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "litscout_bridge_stream_clients",
			Help: "Number of connected event stream clients",
		}),
	}

	reg.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.EventsDropped,
		m.BridgeRequests,
		m.StreamClients,
	)
	return m
}

// ObserveOperation records one finished auth operation.
func (m *Metrics) ObserveOperation(op, outcome string, dur time.Duration) {
	m.OperationsTotal.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(dur.Seconds())
}

// ObserveBridgeRequest records one bridge response.
func (m *Metrics) ObserveBridgeRequest(route string, status int) {
	m.BridgeRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// StreamOpened counts a connected event stream client.
func (m *Metrics) StreamOpened() { m.StreamClients.Inc() }

// StreamClosed uncounts a disconnected event stream client.
func (m *Metrics) StreamClosed() { m.StreamClients.Dec() }
