// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
)

// EventSchemaID is the $id of the generated event schema.
const EventSchemaID = "https://chargeshare.dev/schemas/event.schema.json"

// GenerateEventSchema returns the JSON Schema of events pushed to websocket clients.
func GenerateEventSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Event{})
	schema.ID = jsonschema.ID(EventSchemaID)
	schema.Title = "ChargeShare Broadcast Event"
	schema.Description = "Resource update pushed on the " + TopicResourceUpdates + " topic"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("EVENT_SCHEMA_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}
