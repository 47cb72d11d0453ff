/*
Package world contains the core logic of the plaza server.

This file defines the Hub, the publish/subscribe fan-out used by every other
component: one named channel per room plus the shared plaza channel. Sends are
fire-and-forget; a subscriber whose queue is full simply misses the frame.
*/
package world

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"wordplaza/internal/pkg/logx"
)

// ChannelPlaza is the name of the always-on presence channel.
const ChannelPlaza = "plaza"

// Subscriber is the receiving end the Hub delivers marshaled events to.
// Deliver must not block; it reports false when the frame was dropped.
type Subscriber interface {
	ID() string
	Deliver(data []byte) bool
}

// Publisher is the outbound surface the world service drives. The Hub is the
// production implementation; tests substitute a recording fake.
type Publisher interface {
	Subscribe(channel, connID string)
	Unsubscribe(channel, connID string)
	Publish(channel string, event Event)
	PublishExcept(channel, exceptConnID string, event Event)
	Broadcast(event Event)
	SendTo(connID string, event Event)
}

// Hub tracks every live connection and its channel subscriptions.
type Hub struct {
	mu sync.RWMutex

	// conns holds every registered connection, keyed by connection id.
	conns map[string]Subscriber

	// channels maps a channel name to its current subscriber set.
	channels map[string]map[string]Subscriber

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns:    make(map[string]Subscriber),
		channels: make(map[string]map[string]Subscriber),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register adds a live connection to the hub.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[s.ID()] = s
}

// Unregister removes a connection and every channel subscription it holds.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, connID)

	for name, subs := range h.channels {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(h.channels, name)
		}
	}
}

// Subscribe adds a registered connection to a named channel.
func (h *Hub) Subscribe(channel, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		h.logger.Warn().Str("conn_id", connID).Str("channel", channel).Msg("Subscribe for unknown connection.")
		return
	}

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]Subscriber)
		h.channels[channel] = subs
	}
	subs[connID] = conn
}

// Unsubscribe removes a connection from a named channel.
func (h *Hub) Unsubscribe(channel, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}

	delete(subs, connID)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// Publish sends an event to every subscriber of a channel.
func (h *Hub) Publish(channel string, event Event) {
	h.PublishExcept(channel, "", event)
}

// PublishExcept sends an event to every subscriber of a channel except one
// connection (used for join events the joiner already knows about).
func (h *Hub) PublishExcept(channel, exceptConnID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, sub := range h.channels[channel] {
		if connID == exceptConnID {
			continue
		}
		if !sub.Deliver(data) {
			h.logger.Warn().
				Str("conn_id", connID).
				Str("channel", channel).
				Str("event_type", event.Type).
				Msg("Subscriber queue full, frame dropped.")
		}
	}
}

// Broadcast sends an event to every registered connection, subscribed or not.
// Used for the global room directory listing.
func (h *Hub) Broadcast(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, conn := range h.conns {
		if !conn.Deliver(data) {
			h.logger.Warn().
				Str("conn_id", connID).
				Str("event_type", event.Type).
				Msg("Connection queue full, frame dropped.")
		}
	}
}

// SendTo sends an event to a single connection.
func (h *Hub) SendTo(connID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	conn, exists := h.conns[connID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	if !conn.Deliver(data) {
		h.logger.Warn().
			Str("conn_id", connID).
			Str("event_type", event.Type).
			Msg("Connection queue full, frame dropped.")
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", event.Type).Msg("Error marshaling event for delivery.")
		return nil, false
	}
	return data, true
}
