// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

// Package broadcast fans resource updates out to connected clients.
//
// A single Hub holds the topic registry. Handlers publish events after a
// successful mutation; every subscriber currently joined to the topic gets
// them in publish order. Delivery is best-effort: a slow or dead subscriber
// never blocks the publisher or the other subscribers.
//
// Browsers connect over a websocket (see Handler and Conn) and send
//
//	{"action":"join","topic":"resource-updates"}
//
// to start receiving events.
package broadcast
