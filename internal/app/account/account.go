/*
Package account implements the credential and statistics collaborator backed by PostgreSQL.

It owns user accounts (unique username, salted password hash, display nickname) and the
aggregate per-user game statistics the game core reports into after every completed game.
*/
package account

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the referenced account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateUsername indicates a registration attempt with a taken username.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats holds the aggregate game statistics of one account.
type Stats struct {
	UserID      string `json:"userId"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Points      int    `json:"points"`
}
