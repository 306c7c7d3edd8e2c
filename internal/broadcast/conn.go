// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChargeShare Contributors

package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ConnConfig tunes websocket timing and buffering.
type ConnConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultConnConfig returns production timings.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 512,
		SendBuffer:     64,
	}
}

func (c ConnConfig) withDefaults() ConnConfig {
	d := DefaultConnConfig()
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	return c
}

// Client actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Control message types sent back to the client.
const (
	ControlJoined = "joined"
	ControlLeft   = "left"
	ControlError  = "error"
)

// ControlMessage acknowledges client actions.
type ControlMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Error string `json:"error,omitempty"`
}

// Conn is a websocket-backed Subscriber. It holds at most one topic.
type Conn struct {
	id     string
	ws     *websocket.Conn
	hub    *Hub
	cfg    ConnConfig
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool
	topic  string
}

var _ Subscriber = (*Conn)(nil)

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn, hub *Hub, cfg ConnConfig, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	id := ulid.Make().String()
	return &Conn{
		id:     id,
		ws:     ws,
		hub:    hub,
		cfg:    cfg,
		logger: logger.With("conn_id", id),
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// ID implements Subscriber.
func (c *Conn) ID() string { return c.id }

// Topic returns the currently joined topic, or "".
func (c *Conn) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

// Deliver implements Subscriber. It queues the event for the write pump.
func (c *Conn) Deliver(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return oops.Code("EVENT_ENCODE_FAILED").With("event_id", e.ID).Wrap(err)
	}
	return c.enqueue(data)
}

func (c *Conn) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrSubscriberClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSubscriberFull
	}
}

func (c *Conn) reply(msg ControlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.enqueue(data); err != nil {
		c.logger.Debug("control reply dropped", "type", msg.Type, "error", err)
	}
}

// Serve runs the read and write pumps and blocks until the connection ends
// or ctx is cancelled. The connection leaves every topic before returning.
func (c *Conn) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(ctx)
	}()

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	c.readPump(ctx)
	cancel()
	c.Close()
	wg.Wait()
}

// Close leaves all topics and closes the socket. Safe to call repeatedly.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.topic = ""
	close(c.done)
	c.mu.Unlock()

	c.hub.LeaveAll(c)
	_ = c.ws.Close()
}

func (c *Conn) readPump(ctx context.Context) {
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				c.reply(ControlMessage{Type: ControlError, Error: "malformed message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.DebugContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Conn) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Action {
	case ActionJoin:
		if !IsKnownTopic(msg.Topic) {
			c.reply(ControlMessage{Type: ControlError, Topic: msg.Topic, Error: "unknown topic"})
			return
		}
		c.mu.Lock()
		previous := c.topic
		c.topic = msg.Topic
		c.mu.Unlock()
		if previous != "" && previous != msg.Topic {
			c.hub.Leave(previous, c)
		}
		c.hub.Join(msg.Topic, c)
		c.logger.DebugContext(ctx, "joined topic", "topic", msg.Topic)
		c.reply(ControlMessage{Type: ControlJoined, Topic: msg.Topic})
	case ActionLeave:
		c.mu.Lock()
		current := c.topic
		if current == msg.Topic || msg.Topic == "" {
			c.topic = ""
		}
		c.mu.Unlock()
		if current != "" && (msg.Topic == "" || msg.Topic == current) {
			c.hub.Leave(current, c)
		}
		c.reply(ControlMessage{Type: ControlLeft, Topic: current})
	default:
		c.reply(ControlMessage{Type: ControlError, Error: "unknown action"})
	}
}

func (c *Conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.writeClose()
			return
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.DebugContext(ctx, "websocket write failed", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Conn) writeClose() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(c.cfg.WriteWait))
}
