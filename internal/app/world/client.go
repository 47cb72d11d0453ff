/*
This file defines the Client struct, representing one active WebSocket
connection. It manages the connection lifecycle, the message communication
loops (ReadPump and WritePump), and dispatches decoded intents to the
Service. A Client is the Hub's Subscriber: events queued through Deliver are
drained by WritePump.
*/
package world

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wordplaza/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 4096
)

// Client struct represents an active WebSocket connection.
type Client struct {
	// stable identifier of this connection, used as the player id everywhere.
	id string

	// world service handling all decoded intents.
	service *Service

	// hub this client is registered with.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// registered account bound at handshake time, nil for guests.
	account *BoundAccount

	// a buffered channel used to queue events waiting to be sent to the client.
	send chan []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client and registers it with the hub.
func NewClient(service *Service, hub *Hub, wsConn *websocket.Conn, connID string, account *BoundAccount) *Client {
	client := &Client{
		id:      connID,
		service: service,
		hub:     hub,
		conn:    wsConn,
		account: account,
		send:    make(chan []byte, 256),
		logger:  logx.Logger().With().Str("conn_id", connID).Logger(),
	}

	hub.Register(client)

	return client
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Deliver queues an already-encoded event for the write loop. It reports
// false when the queue is full and the event was dropped.
func (c *Client) Deliver(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong), message parsing, and performs cleanup upon
// connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's
// ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.service.Disconnect(c.id)
	c.hub.Unregister(c.id)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage decodes one raw client message and routes it to the
// matching Service intent.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case TypeLogin:
		var p LoginPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.Login(c.id, p.Name, c.account)

	case TypePlazaMove:
		var p PlazaMovePayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.PlazaMove(c.id, p)

	case TypePlazaChat:
		var p PlazaChatPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.PlazaChat(c.id, p.Text)

	case TypeCreateRoom:
		var p CreateRoomPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.CreateRoom(c.id, p.Name)

	case TypeJoinRoom:
		var p JoinRoomPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.JoinRoom(c.id, p.RoomID)

	case TypeLeaveRoom:
		c.service.LeaveRoom(c.id)

	case TypeRoomChat:
		var p RoomChatPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.RoomChat(c.id, p.RoomID, p.Text)

	case TypeStartWordGame:
		var p StartWordGamePayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.StartGame(c.id, p.RoomID)

	case TypeSubmitWord:
		var p SubmitWordPayload
		if !c.decode(inbound.Type, inbound.Payload, &p) {
			return
		}
		c.service.SubmitWord(c.id, p.RoomID, p.Word)

	default:
		c.logger.Warn().Str("msg_type", inbound.Type).Msg("Client sent unsupported message type")
	}
}

// decode unmarshals an intent payload, logging and reporting false on bad input.
func (c *Client) decode(msgType string, payloadBytes json.RawMessage, dst any) bool {
	if err := json.Unmarshal(payloadBytes, dst); err != nil {
		c.logger.Warn().Err(err).Str("msg_type", msgType).Msg("Client sent invalid payload")
		return false
	}
	return true
}

// WritePump handles writing queued events from the Client.send channel to the
// WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles messages pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
