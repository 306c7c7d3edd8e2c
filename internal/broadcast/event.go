// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TopicResourceUpdates carries charger lifecycle events.
const TopicResourceUpdates = "resource-updates"

// knownTopics lists topics clients may join.
var knownTopics = map[string]struct{}{
	TopicResourceUpdates: {},
}

// IsKnownTopic reports whether clients may join topic.
func IsKnownTopic(topic string) bool {
	_, ok := knownTopics[topic]
	return ok
}

// EventType identifies the variant of an Event.
type EventType string

// Event variants.
const (
	EventResourceAdded               EventType = "resource_added"
	EventResourceRemoved             EventType = "resource_removed"
	EventResourceAvailabilityChanged EventType = "resource_availability_changed"
)

// Event is a tagged union; Type selects which payload fields are set.
//
//   - resource_added: Resource, ResourceID, HostID
//   - resource_removed: ResourceID, HostID
//   - resource_availability_changed: ResourceID, Available, HostID
type Event struct {
	ID         string    `json:"id" jsonschema:"description=ULID of the event"`
	Type       EventType `json:"type" jsonschema:"enum=resource_added,enum=resource_removed,enum=resource_availability_changed"`
	Resource   any       `json:"resource,omitempty" jsonschema:"description=Full resource for resource_added"`
	ResourceID string    `json:"resource_id"`
	Available  *bool     `json:"available,omitempty"`
	HostID     string    `json:"host_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ResourceAdded announces a newly listed resource.
func ResourceAdded(resourceID, hostID ulid.ULID, resource any, at time.Time) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       EventResourceAdded,
		Resource:   resource,
		ResourceID: resourceID.String(),
		HostID:     hostID.String(),
		Timestamp:  at.UTC(),
	}
}

// ResourceRemoved announces a deleted resource.
func ResourceRemoved(resourceID, hostID ulid.ULID, at time.Time) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       EventResourceRemoved,
		ResourceID: resourceID.String(),
		HostID:     hostID.String(),
		Timestamp:  at.UTC(),
	}
}

// ResourceAvailabilityChanged announces an availability flip.
func ResourceAvailabilityChanged(resourceID ulid.ULID, available bool, hostID ulid.ULID, at time.Time) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       EventResourceAvailabilityChanged,
		ResourceID: resourceID.String(),
		Available:  &available,
		HostID:     hostID.String(),
		Timestamp:  at.UTC(),
	}
}

// Validate checks that the variant's required fields are present.
func (e Event) Validate() error {
	if e.ResourceID == "" {
		return oops.Code("EVENT_INVALID").With("type", string(e.Type)).Errorf("resource_id is required")
	}
	switch e.Type {
	case EventResourceAdded:
		if e.Resource == nil {
			return oops.Code("EVENT_INVALID").With("type", string(e.Type)).Errorf("resource is required")
		}
	case EventResourceRemoved:
	case EventResourceAvailabilityChanged:
		if e.Available == nil {
			return oops.Code("EVENT_INVALID").With("type", string(e.Type)).Errorf("available is required")
		}
	default:
		return oops.Code("EVENT_UNKNOWN_TYPE").With("type", string(e.Type)).Errorf("unknown event type %q", e.Type)
	}
	return nil
}
