// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSubscriberClosed is returned by Deliver once a subscriber has gone away.
	// The hub drops subscribers that report it.
	ErrSubscriberClosed = errors.New("subscriber closed")
	// ErrSubscriberFull is returned when a subscriber's buffer cannot take the event.
	ErrSubscriberFull = errors.New("subscriber buffer full")
)

// Subscriber receives events from the hub. Deliver must not block.
type Subscriber interface {
	ID() string
	Deliver(Event) error
}

// Publisher is the side of the hub that request handlers depend on.
type Publisher interface {
	Publish(ctx context.Context, topic string, events ...Event)
}

// DefaultChannelBuffer is the buffer size of a ChannelSubscriber.
const DefaultChannelBuffer = 100

// ChannelSubscriber buffers events on a channel. When the buffer is full the
// event is dropped for this subscriber only.
type ChannelSubscriber struct {
	id string
	ch chan Event

	mu     sync.Mutex
	closed bool
}

// NewChannelSubscriber creates a subscriber with the given buffer size.
// A size <= 0 uses DefaultChannelBuffer.
func NewChannelSubscriber(id string, size int) *ChannelSubscriber {
	if size <= 0 {
		size = DefaultChannelBuffer
	}
	return &ChannelSubscriber{id: id, ch: make(chan Event, size)}
}

// ID implements Subscriber.
func (s *ChannelSubscriber) ID() string { return s.id }

// Events returns the receive side of the buffer. It is closed by Close.
func (s *ChannelSubscriber) Events() <-chan Event { return s.ch }

// Deliver implements Subscriber.
func (s *ChannelSubscriber) Deliver(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	select {
	case s.ch <- e:
		return nil
	default:
		return ErrSubscriberFull
	}
}

// Close stops delivery and closes the channel. Safe to call twice.
func (s *ChannelSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
