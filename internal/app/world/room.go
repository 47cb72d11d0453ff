/*
Package world contains the core logic of the plaza server.

This file defines the Room: a transient container for one game session plus
its chat. The room exclusively owns its membership and its embedded game; one
mutex serializes every mutation of either, so no game operation can interleave
with a membership change on the same room.
*/
package world

import (
	"errors"
	"sync"
	"time"
)

// DefaultRoomName is used when a createRoom request carries a blank name.
const DefaultRoomName = "Untitled Room"

// ErrNotMember rejects game intents from connections outside the room.
var ErrNotMember = errors.New("not a room member")

// RoomSummary is the directory-listing projection of a room.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	IsActive    bool   `json:"isActive"`
}

// RoomSnapshot is the full room state broadcast to members.
type RoomSnapshot struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Players  []string     `json:"players"`
	WordGame GameSnapshot `json:"wordGame"`
}

// LeaveResult reports the effect of one member departure.
type LeaveResult struct {
	// Removed is false when the connection was not a member.
	Removed bool

	// Empty is true when the departure emptied the room; the caller must
	// destroy it.
	Empty bool

	// TurnChanged and End carry the game reconciliation outcome, see
	// Game.RemovePlayer.
	TurnChanged bool
	End         *EndResult
}

// Room is one transient game room.
type Room struct {
	// ID and Name are immutable after creation.
	ID   string
	Name string

	mu sync.Mutex

	// members holds connection ids in join order; the order seeds the turn
	// order at game start.
	members   []string
	memberSet map[string]struct{}

	game *Game
}

// NewRoom constructs an empty room with a fresh inactive game.
func NewRoom(id, name string) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		memberSet: make(map[string]struct{}),
		game:      NewGame(DefaultMaxRounds),
	}
}

// Join appends the connection to the membership. Joining a room twice is a
// no-op that preserves the original position.
func (r *Room) Join(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberSet[connID]; ok {
		return false
	}

	r.members = append(r.members, connID)
	r.memberSet[connID] = struct{}{}
	return true
}

// HasMember reports whether the connection is currently a member.
func (r *Room) HasMember(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.memberSet[connID]
	return ok
}

// Leave removes the connection from the membership and, when a game is
// running, reconciles the game state in the same critical section so no other
// room operation can observe a member missing from an unreconciled game.
func (r *Room) Leave(connID string, now time.Time) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberSet[connID]; !ok {
		return LeaveResult{}
	}

	delete(r.memberSet, connID)
	for i, id := range r.members {
		if id == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}

	res := LeaveResult{Removed: true}

	if r.game.Active() {
		removed := r.game.RemovePlayer(connID, now)
		res.TurnChanged = removed.TurnChanged
		res.End = removed.End
	}

	res.Empty = len(r.members) == 0
	return res
}

// StartGame begins the word-chain game on behalf of a member. Non-members are
// rejected; the game itself rejects double starts and short rosters.
func (r *Room) StartGame(requesterID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberSet[requesterID]; !ok {
		return ErrNotMember
	}

	return r.game.Start(append([]string(nil), r.members...), now)
}

// SubmitWord forwards a word submission from a member to the game.
func (r *Room) SubmitWord(connID, rawWord string, now time.Time) (SubmitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberSet[connID]; !ok {
		return SubmitResult{}, ErrNotMember
	}

	return r.game.Submit(connID, rawWord, now)
}

// Summary returns the directory-listing projection of the room.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		PlayerCount: len(r.members),
		IsActive:    r.game.Active(),
	}
}

// Snapshot returns the full room state for broadcasting.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSnapshot{
		ID:       r.ID,
		Name:     r.Name,
		Players:  append([]string(nil), r.members...),
		WordGame: r.game.Snapshot(),
	}
}
