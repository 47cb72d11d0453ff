package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"wordplaza/internal/app/db"
)

const (
	// WinPoints is awarded to the winner of a completed game, on top of the win counter.
	WinPoints = 50

	// ParticipationPoints is awarded to every non-winning participant of a completed game.
	ParticipationPoints = 10
)

// Store provides account persistence on top of a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store around an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateUser registers a new account with a bcrypt-hashed password and an empty stats row.
// It returns ErrDuplicateUsername when the username is already taken.
func (s *Store) CreateUser(ctx context.Context, username, password, nickname string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var user User
	user.Username = username
	user.Nickname = nickname

	row := tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, nickname)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		username, string(hash), nickname)

	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO user_stats (user_id) VALUES ($1)`, user.ID); err != nil {
		return User{}, fmt.Errorf("failed to insert stats row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("failed to commit: %w", err)
	}

	return user, nil
}

// Authenticate checks a username/password pair and returns the matching account.
// Both an unknown username and a wrong password yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var user User
	var passwordHash string

	row := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, nickname, created_at
		 FROM users WHERE username = $1`, username)

	err := row.Scan(&user.ID, &user.Username, &passwordHash, &user.Nickname, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID fetches a single account by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User

	row := s.pool.QueryRow(ctx,
		`SELECT id, username, nickname, created_at FROM users WHERE id = $1`, id)

	err := row.Scan(&user.ID, &user.Username, &user.Nickname, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// RecordGameResult updates the aggregate stats for one completed game:
// every participant gets a game played, the winner additionally gets a win plus
// WinPoints, every other participant gets ParticipationPoints.
// winnerID may be empty (no registered winner); unknown ids are skipped by the
// UPDATEs and do not fail the batch.
func (s *Store) RecordGameResult(ctx context.Context, winnerID string, participantIDs []string) error {
	if len(participantIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, uid := range participantIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE user_stats SET games_played = games_played + 1 WHERE user_id = $1`, uid); err != nil {
			return fmt.Errorf("failed to update games_played for %s: %w", uid, err)
		}

		if uid == winnerID {
			_, err = tx.Exec(ctx,
				`UPDATE user_stats SET wins = wins + 1, points = points + $2 WHERE user_id = $1`,
				uid, WinPoints)
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE user_stats SET points = points + $2 WHERE user_id = $1`,
				uid, ParticipationPoints)
		}
		if err != nil {
			return fmt.Errorf("failed to update points for %s: %w", uid, err)
		}
	}

	return tx.Commit(ctx)
}

// GetStats fetches the aggregate statistics of one account.
func (s *Store) GetStats(ctx context.Context, userID string) (Stats, error) {
	var stats Stats

	row := s.pool.QueryRow(ctx,
		`SELECT user_id, games_played, wins, points FROM user_stats WHERE user_id = $1`, userID)

	err := row.Scan(&stats.UserID, &stats.GamesPlayed, &stats.Wins, &stats.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, ErrNotFound
		}
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}
