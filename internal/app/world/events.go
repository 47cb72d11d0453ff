/*
Package world contains the core logic of the plaza server: connection sessions,
the shared presence world, room lifecycle, the word-chain game engine, and the
broadcast hub that fans state out to connected clients.

This file defines the wire contract: the event envelope exchanged with clients
and the typed payloads for every inbound intent and outbound event.
*/
package world

// Event is the envelope every websocket frame carries, in both directions.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound intent types.
const (
	TypeLogin         = "login"
	TypePlazaMove     = "plazaMove"
	TypePlazaChat     = "plazaChat"
	TypeCreateRoom    = "createRoom"
	TypeJoinRoom      = "joinRoom"
	TypeLeaveRoom     = "leaveRoom"
	TypeRoomChat      = "roomChat"
	TypeStartWordGame = "startWordGame"
	TypeSubmitWord    = "submitWord"
)

// Outbound event types.
const (
	TypeLoginSuccess    = "loginSuccess"
	TypePlazaJoin       = "plazaJoin"
	TypePlazaLeave      = "plazaLeave"
	TypeRoomList        = "roomList"
	TypeRoomJoined      = "roomJoined"
	TypeRoomState       = "roomState"
	TypeWordGameStarted = "wordGameStarted"
	TypeWordGameTurn    = "wordGameTurn"
	TypeWordGameEnded   = "wordGameEnded"
	TypeWordGameSystem  = "wordGameSystem"
	TypeWordSubmitted   = "wordSubmitted"
	// plazaMove, plazaChat and roomChat are echoed back under their inbound names.
)

// LoginPayload carries the requested display name of a connecting player.
type LoginPayload struct {
	Name string `json:"name"`
}

// PlazaMovePayload carries a client-reported position update. Pointer fields
// distinguish "absent" from zero values; absent or non-numeric fields are
// ignored rather than rejected.
type PlazaMovePayload struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Facing string   `json:"facing"`
	State  string   `json:"state"`
}

// PlazaChatPayload carries a plaza chat line.
type PlazaChatPayload struct {
	Text string `json:"text"`
}

// CreateRoomPayload carries the requested display name of a new room.
type CreateRoomPayload struct {
	Name string `json:"name"`
}

// JoinRoomPayload addresses an existing room.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// RoomChatPayload carries a room chat line.
type RoomChatPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// StartWordGamePayload asks to start the word-chain game in a room.
type StartWordGamePayload struct {
	RoomID string `json:"roomId"`
}

// SubmitWordPayload carries one word submission for the active game.
type SubmitWordPayload struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

// LoginSuccessPayload is returned to the connection that completed login.
type LoginSuccessPayload struct {
	SelfID string        `json:"selfId"`
	UserID string        `json:"userId"`
	Name   string        `json:"name"`
	Plaza  PlazaSnapshot `json:"plaza"`
	Rooms  []RoomSummary `json:"rooms"`
}

// PlazaLeavePayload announces a departure from the plaza.
type PlazaLeavePayload struct {
	ID string `json:"id"`
}

// ChatMessage is the broadcast form of a plaza or room chat line.
type ChatMessage struct {
	RoomID string `json:"roomId,omitempty"`
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	Time   int64  `json:"time"`
}

// RoomJoinedPayload confirms a successful room join to the joiner.
type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

// GameStatePayload wraps a full room snapshot for game lifecycle events.
type GameStatePayload struct {
	RoomID string       `json:"roomId"`
	State  RoomSnapshot `json:"state"`
}

// GameEndedPayload announces the termination of a game to the whole room.
type GameEndedPayload struct {
	RoomID   string         `json:"roomId"`
	Reason   string         `json:"reason"`
	WinnerID string         `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
}

// SystemMessagePayload carries a human-readable game system line.
type SystemMessagePayload struct {
	RoomID string `json:"roomId"`
	Msg    string `json:"msg"`
}

// WordSubmittedPayload announces an accepted word with its score effect.
type WordSubmittedPayload struct {
	RoomID     string `json:"roomId"`
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Word       string `json:"word"`
	Gained     int    `json:"gained"`
	TotalScore int    `json:"totalScore"`
}
