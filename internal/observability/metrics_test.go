// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/chargeshare/chargeshare/internal/auth"
	"github.com/chargeshare/chargeshare/internal/broadcast"
	"github.com/chargeshare/chargeshare/internal/web"
)

var (
	_ auth.SessionMetrics  = (*Metrics)(nil)
	_ broadcast.HubMetrics = (*Metrics)(nil)
	_ web.RejectionMetrics = (*Metrics)(nil)
	_ web.RequestMetrics   = (*Metrics)(nil)
)

func TestMetrics_SessionsSwept(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SessionsSwept(0)
	m.SessionsSwept(4)
	m.SessionsSwept(-1)

	assert.InDelta(t, 4, testutil.ToFloat64(m.SessionsSweptTotal), 0)
}

func TestMetrics_Broadcast(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SubscribersChanged(broadcast.TopicResourceUpdates, 2)
	m.SubscribersChanged(broadcast.TopicResourceUpdates, 1)
	m.EventPublished(string(broadcast.EventResourceAdded))
	m.DeliveryFailed("buffer_full")
	m.DeliveryFailed("buffer_full")

	assert.InDelta(t, 1, testutil.ToFloat64(m.Subscribers.WithLabelValues(broadcast.TopicResourceUpdates)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EventsPublished.WithLabelValues(string(broadcast.EventResourceAdded))), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DeliveryFailures.WithLabelValues("buffer_full")), 0)
}

func TestMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
