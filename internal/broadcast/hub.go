// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/chargeshare/chargeshare/pkg/errutil"
)

// Delivery failure reasons reported to HubMetrics.
const (
	ReasonBufferFull = "buffer_full"
	ReasonClosed     = "closed"
	ReasonError      = "error"
)

// HubMetrics receives hub activity counts.
type HubMetrics interface {
	SubscribersChanged(topic string, n int)
	EventPublished(eventType string)
	DeliveryFailed(reason string)
}

type noopHubMetrics struct{}

func (noopHubMetrics) SubscribersChanged(string, int) {}
func (noopHubMetrics) EventPublished(string)          {}
func (noopHubMetrics) DeliveryFailed(string)          {}

// Hub distributes events to the subscribers of a topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]Subscriber

	logger  *slog.Logger
	metrics HubMetrics
}

var _ Publisher = (*Hub)(nil)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// WithHubMetrics sets the metrics sink.
func WithHubMetrics(m HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		topics:  make(map[string]map[string]Subscriber),
		logger:  slog.Default(),
		metrics: noopHubMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join adds sub to topic. It returns false if sub was already joined.
func (h *Hub) Join(topic string, sub Subscriber) bool {
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]Subscriber)
		h.topics[topic] = subs
	}
	if _, exists := subs[sub.ID()]; exists {
		h.mu.Unlock()
		return false
	}
	subs[sub.ID()] = sub
	n := len(subs)
	h.mu.Unlock()

	h.metrics.SubscribersChanged(topic, n)
	return true
}

// Leave removes sub from topic. Leaving a topic not joined is a no-op.
func (h *Hub) Leave(topic string, sub Subscriber) {
	h.remove(topic, sub.ID())
}

// LeaveAll removes sub from every topic.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.RLock()
	var joined []string
	for topic, subs := range h.topics {
		if _, ok := subs[sub.ID()]; ok {
			joined = append(joined, topic)
		}
	}
	h.mu.RUnlock()

	for _, topic := range joined {
		h.remove(topic, sub.ID())
	}
}

func (h *Hub) remove(topic, id string) {
	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := subs[id]; !exists {
		h.mu.Unlock()
		return
	}
	delete(subs, id)
	n := len(subs)
	if n == 0 {
		delete(h.topics, topic)
	}
	h.mu.Unlock()

	h.metrics.SubscribersChanged(topic, n)
}

// Subscribers returns the number of subscribers joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// snapshot copies the subscriber set so delivery runs without the lock.
func (h *Hub) snapshot(topic string) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.topics[topic]
	out := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	return out
}

// Publish delivers events, in order, to every subscriber of topic.
// Per-subscriber failures are logged and never reach the caller.
func (h *Hub) Publish(ctx context.Context, topic string, events ...Event) {
	if len(events) == 0 {
		return
	}
	for _, e := range events {
		h.metrics.EventPublished(string(e.Type))
	}

	for _, sub := range h.snapshot(topic) {
		for _, e := range events {
			err := sub.Deliver(e)
			if err == nil {
				continue
			}
			if errors.Is(err, ErrSubscriberClosed) {
				h.metrics.DeliveryFailed(ReasonClosed)
				h.remove(topic, sub.ID())
				h.logger.DebugContext(ctx, "dropped closed subscriber",
					"topic", topic, "subscriber", sub.ID())
				break
			}
			reason := ReasonError
			if errors.Is(err, ErrSubscriberFull) {
				reason = ReasonBufferFull
			}
			h.metrics.DeliveryFailed(reason)
			errutil.Log(ctx, h.logger, slog.LevelWarn, "event dropped for subscriber",
				oops.Code("BROADCAST_DELIVERY_FAILED").
					With("topic", topic).
					With("subscriber", sub.ID()).
					With("event_id", e.ID).
					With("event_type", string(e.Type)).
					Wrap(err),
			)
		}
	}
}
