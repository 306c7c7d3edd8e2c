// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the ChargeShare Prometheus metrics. It satisfies the
// metrics interfaces of the auth, broadcast and web packages so one value can
// be handed to each of them.
type Metrics struct {
	SessionsCreatedTotal prometheus.Counter
	SessionsSweptTotal   prometheus.Counter
	AuthRejections       *prometheus.CounterVec
	Subscribers          *prometheus.GaugeVec
	EventsPublished      *prometheus.CounterVec
	DeliveryFailures     *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers the ChargeShare metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chargeshare_sessions_created_total",
			Help: "Total number of sessions created by register or login",
		}),
		SessionsSweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chargeshare_sessions_swept_total",
			Help: "Total number of expired sessions removed by the sweeper",
		}),
		AuthRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargeshare_auth_rejections_total",
				Help: "Total number of rejected credentials by internal cause",
			},
			[]string{"cause"},
		),
		Subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chargeshare_broadcast_subscribers",
				Help: "Current number of subscribers per topic",
			},
			[]string{"topic"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargeshare_broadcast_events_total",
				Help: "Total number of published events by type",
			},
			[]string{"type"},
		),
		DeliveryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargeshare_broadcast_delivery_failures_total",
				Help: "Total number of failed event deliveries by reason",
			},
			[]string{"reason"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chargeshare_http_requests_total",
				Help: "Total number of API requests by route and status",
			},
			[]string{"route", "status"},
		),
	}

	reg.MustRegister(
		m.SessionsCreatedTotal,
		m.SessionsSweptTotal,
		m.AuthRejections,
		m.Subscribers,
		m.EventsPublished,
		m.DeliveryFailures,
		m.HTTPRequestsTotal,
	)
	return m
}

// SessionCreated implements auth.SessionMetrics.
func (m *Metrics) SessionCreated() { m.SessionsCreatedTotal.Inc() }

// SessionsSwept implements auth.SessionMetrics.
func (m *Metrics) SessionsSwept(n int64) {
	if n > 0 {
		m.SessionsSweptTotal.Add(float64(n))
	}
}

// AuthRejected implements web.RejectionMetrics.
func (m *Metrics) AuthRejected(cause string) { m.AuthRejections.WithLabelValues(cause).Inc() }

// SubscribersChanged implements broadcast.HubMetrics.
func (m *Metrics) SubscribersChanged(topic string, n int) {
	m.Subscribers.WithLabelValues(topic).Set(float64(n))
}

// EventPublished implements broadcast.HubMetrics.
func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// DeliveryFailed implements broadcast.HubMetrics.
func (m *Metrics) DeliveryFailed(reason string) { m.DeliveryFailures.WithLabelValues(reason).Inc() }

// RequestCompleted implements web.RequestMetrics.
func (m *Metrics) RequestCompleted(route string, status int) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
