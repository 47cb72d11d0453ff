/*
Package world contains the core logic of the plaza server.

This file defines the Plaza, the single shared presence world every logged-in
connection inhabits. It owns the player map exclusively; all reads and writes
go through its methods under one lock.
*/
package world

import (
	"sort"
	"sync"
)

const (
	// PlazaMapID identifies the map clients render for the plaza.
	PlazaMapID = "village"

	// Spawn coordinates for newly joined players.
	SpawnX = 600
	SpawnY = 600
)

// Facing values recognized by the server.
const (
	FacingUp    = "up"
	FacingDown  = "down"
	FacingLeft  = "left"
	FacingRight = "right"
)

// Animation states recognized by the server.
const (
	StateIdle    = "idle"
	StateWalk    = "walk"
	StateFishing = "fishing"
)

var validFacings = map[string]struct{}{
	FacingUp: {}, FacingDown: {}, FacingLeft: {}, FacingRight: {},
}

var validStates = map[string]struct{}{
	StateIdle: {}, StateWalk: {}, StateFishing: {},
}

// Player is the presence record of one connection in the plaza.
type Player struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing"`
	State  string  `json:"state"`
}

// PlazaSnapshot is the full world state sent to a joining connection.
type PlazaSnapshot struct {
	MapID   string   `json:"mapId"`
	Players []Player `json:"players"`
}

// Plaza is the shared presence world.
type Plaza struct {
	mu      sync.RWMutex
	players map[string]*Player
}

// NewPlaza constructs an empty Plaza.
func NewPlaza() *Plaza {
	return &Plaza{players: make(map[string]*Player)}
}

// Join places a new player at the spawn point and returns it. Joining twice
// with the same connection id resets the player to spawn.
func (p *Plaza) Join(connID, userID, name string) Player {
	p.mu.Lock()
	defer p.mu.Unlock()

	player := &Player{
		ID:     connID,
		UserID: userID,
		Name:   name,
		X:      SpawnX,
		Y:      SpawnY,
		Facing: FacingDown,
		State:  StateIdle,
	}
	p.players[connID] = player

	return *player
}

// Move applies a client-reported position update. Each field is applied only
// when present and recognized; invalid fields are ignored, never rejected.
// Positions are trusted as reported: there is no server-side speed or bounds
// check. Returns the updated player and whether the connection was present.
func (p *Plaza) Move(connID string, move PlazaMovePayload) (Player, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	player, ok := p.players[connID]
	if !ok {
		return Player{}, false
	}

	if move.X != nil {
		player.X = *move.X
	}
	if move.Y != nil {
		player.Y = *move.Y
	}
	if _, valid := validFacings[move.Facing]; valid {
		player.Facing = move.Facing
	}
	if _, valid := validStates[move.State]; valid {
		player.State = move.State
	}

	return *player, true
}

// Leave removes the player. Returns false when the connection was not present,
// making repeated calls harmless.
func (p *Plaza) Leave(connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.players[connID]; !ok {
		return false
	}

	delete(p.players, connID)
	return true
}

// Get returns a copy of one player's presence record.
func (p *Plaza) Get(connID string) (Player, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	player, ok := p.players[connID]
	if !ok {
		return Player{}, false
	}
	return *player, true
}

// Snapshot returns the full world state. Players are sorted by connection id
// so snapshots are stable on the wire.
func (p *Plaza) Snapshot() PlazaSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	players := make([]Player, 0, len(p.players))
	for _, player := range p.players {
		players = append(players, *player)
	}

	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	return PlazaSnapshot{MapID: PlazaMapID, Players: players}
}
