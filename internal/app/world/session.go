/*
Package world contains the core logic of the plaza server.

This file defines the connection registry: the mapping from a live transport
connection to its identity (display name, generated user id, optional bound
account) and to at most one room membership.
*/
package world

import (
	"strings"
	"sync"
)

// DefaultDisplayName is used when a login request carries a blank name.
const DefaultDisplayName = "Guest"

// Session is the per-connection identity record. It exists from a successful
// login until the connection disconnects.
type Session struct {
	// ConnID is the opaque id of the live transport connection.
	ConnID string

	// UserID is the short generated id shown to other players.
	UserID string

	// Name is the sanitized display name.
	Name string

	// AccountID is the registered account bound to this connection, or empty
	// for guests. Only bound sessions have game results recorded.
	AccountID string

	// RoomID is the room this connection is currently a member of, or empty.
	RoomID string
}

// Registry owns the session map. All access goes through its methods.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Login creates a session for the connection. The requested name is trimmed
// and falls back to fallbackName (or DefaultDisplayName) when blank. When the
// connection already has a session, the existing one is returned unchanged and
// created is false: login is idempotent by ignoring repeats, not an error.
func (r *Registry) Login(connID, requestedName, userID, accountID, fallbackName string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[connID]; ok {
		return *existing, false
	}

	name := strings.TrimSpace(requestedName)
	if name == "" {
		name = strings.TrimSpace(fallbackName)
	}
	if name == "" {
		name = DefaultDisplayName
	}

	sess := &Session{
		ConnID:    connID,
		UserID:    userID,
		Name:      name,
		AccountID: accountID,
	}
	r.sessions[connID] = sess

	return *sess, true
}

// Get returns a copy of the session for the connection, if any.
func (r *Registry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// SetRoom records the room the connection currently belongs to ("" for none).
func (r *Registry) SetRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[connID]; ok {
		sess.RoomID = roomID
	}
}

// Remove tears down the session. Safe to call for connections that never
// logged in; the second call for the same connection is a no-op.
func (r *Registry) Remove(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}

	delete(r.sessions, connID)
	return *sess, true
}
