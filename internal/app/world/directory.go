/*
Package world contains the core logic of the plaza server.

This file defines the Directory, which owns the set of live rooms. Rooms are
created on demand and destroyed synchronously when their last member leaves;
there is no idle-timeout machinery because room lifetime is defined entirely
by membership.
*/
package world

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"wordplaza/internal/pkg/logx"
	"wordplaza/internal/pkg/randx"
)

// Directory owns the room map. The raw map never leaves this type.
type Directory struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	logger zerolog.Logger
}

// NewDirectory constructs an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms:  make(map[string]*Room),
		logger: logx.Logger().With().Str("component", "Directory").Logger(),
	}
}

// Create generates a unique room id and registers a new room under it. A
// blank name falls back to DefaultRoomName.
func (d *Directory) Create(name string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRoomName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var id string
	for {
		generated, err := randx.RoomID()
		if err != nil {
			return nil, err
		}
		if _, taken := d.rooms[generated]; !taken {
			id = generated
			break
		}
	}

	room := NewRoom(id, name)
	d.rooms[id] = room

	d.logger.Info().Str("room_id", id).Str("room_name", name).Msg("Room created.")
	return room, nil
}

// Get retrieves a room by id, or nil when it does not exist.
func (d *Directory) Get(roomID string) *Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.rooms[roomID]
}

// Remove deletes a room from the directory. Called when the last member left.
func (d *Directory) Remove(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[roomID]; ok {
		delete(d.rooms, roomID)
		d.logger.Info().Str("room_id", roomID).Msg("Room destroyed.")
	}
}

// List derives the directory listing from the live rooms. It is computed on
// every call, never cached, so it can not go stale. Summaries are sorted by
// room id for a stable wire representation.
func (d *Directory) List() []RoomSummary {
	d.mu.RLock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	d.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}
