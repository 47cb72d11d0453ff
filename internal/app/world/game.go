/*
Package world contains the core logic of the plaza server.

This file defines the word-chain game engine: a state machine over turn order,
chain legality, scoring and round progression. The engine holds no lock and
performs no I/O; the owning Room serializes access, and every time-dependent
method takes the current time explicitly.
*/
package world

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// TurnDuration is the fixed time an active player has to submit a word.
	TurnDuration = 15 * time.Second

	// DefaultMaxRounds is the number of full turn-order passes per game.
	DefaultMaxRounds = 3

	// MinPlayers is the minimum member count required to start a game.
	MinPlayers = 2

	// PointsPerRune is the score awarded per rune of an accepted word.
	PointsPerRune = 10
)

// Game end reasons, broadcast verbatim in wordGameEnded events.
const (
	EndReasonTimeout             = "timeout"
	EndReasonDuplicateWord       = "duplicate word"
	EndReasonChainViolation      = "chain violation"
	EndReasonRoundsComplete      = "rounds complete"
	EndReasonInsufficientPlayers = "insufficient players"
)

// Intent rejections. These reach only the submitting connection and never
// change game state.
var (
	ErrGameActive       = errors.New("game already active")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrGameNotActive    = errors.New("game not active")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrEmptyWord        = errors.New("empty word")
)

// hangulWord is the plausibility check for submitted words: two or more
// Hangul syllables. Failing it only warns; real dictionary validation is
// deliberately out of scope.
var hangulWord = regexp.MustCompile(`^[가-힣]{2,}$`)

// EndResult describes a terminated game: why it ended, who won, and the final
// scores of every participant (including players who left mid-game).
type EndResult struct {
	Reason   string
	WinnerID string
	Scores   map[string]int
}

// SubmitResult reports the effect of one word submission.
type SubmitResult struct {
	// Accepted is true when the word was applied to the chain and scored.
	Accepted bool

	// Word is the trimmed word, set only when accepted.
	Word string

	// Gained and TotalScore are the points awarded and the submitter's
	// running total, set only when accepted.
	Gained     int
	TotalScore int

	// FormatWarning is true when the word failed the plausibility check.
	// The word is still processed; the room is warned.
	FormatWarning bool

	// End is non-nil when this submission terminated the game, whether by
	// fault (timeout, duplicate, chain violation) or by completing the
	// final round.
	End *EndResult
}

// RemoveResult reports the effect of removing a player mid-game.
type RemoveResult struct {
	// Removed is true when the player was part of the active turn order.
	Removed bool

	// TurnChanged is true when the current turn holder changed (or its
	// index moved) and a fresh turn broadcast is required.
	TurnChanged bool

	// End is non-nil when the removal left fewer than MinPlayers and the
	// game was force-ended.
	End *EndResult
}

// Game is the word-chain state of one room.
type Game struct {
	active bool

	// turnOrder is fixed at game start (room join order) and only ever
	// shrinks when players leave mid-game.
	turnOrder        []string
	currentTurnIndex int

	// startOrder keeps the original turn order for deterministic winner
	// tie-breaking after removals.
	startOrder []string

	lastWord  string
	usedWords []string
	used      map[string]struct{}

	scores map[string]int

	round     int
	maxRounds int

	turnDeadline time.Time
}

// NewGame constructs an inactive game. maxRounds <= 0 selects the default.
func NewGame(maxRounds int) *Game {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Game{maxRounds: maxRounds}
}

// Active reports whether a game is currently running.
func (g *Game) Active() bool {
	return g.active
}

// CurrentTurnID returns the connection id holding the current turn, or ""
// when no game is running.
func (g *Game) CurrentTurnID() string {
	if !g.active || len(g.turnOrder) == 0 {
		return ""
	}
	return g.turnOrder[g.currentTurnIndex]
}

// Start begins a new game with the given members, in their given order.
// The order is deliberately the room join order, not randomized, so games
// are reproducible from the membership history.
func (g *Game) Start(memberIDs []string, now time.Time) error {
	if g.active {
		return ErrGameActive
	}
	if len(memberIDs) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.active = true
	g.turnOrder = append([]string(nil), memberIDs...)
	g.startOrder = append([]string(nil), memberIDs...)
	g.currentTurnIndex = 0
	g.lastWord = ""
	g.usedWords = nil
	g.used = make(map[string]struct{})
	g.scores = make(map[string]int, len(memberIDs))
	for _, id := range memberIDs {
		g.scores[id] = 0
	}
	g.round = 1
	g.turnDeadline = now.Add(TurnDuration)

	return nil
}

// Submit processes one word submission from connID at the given time.
//
// Rejections (not active, expired turn handled below, wrong turn, blank word)
// return an error and leave the state untouched. Fault terminations —
// timeout, duplicate word, chain violation — are not errors: they are valid
// game outcomes reported through SubmitResult.End.
//
// The turn deadline is checked lazily, only here: a round nobody submits to
// never terminates on its own.
func (g *Game) Submit(connID, rawWord string, now time.Time) (SubmitResult, error) {
	if !g.active {
		return SubmitResult{}, ErrGameNotActive
	}

	if now.After(g.turnDeadline) {
		end := g.end(EndReasonTimeout)
		return SubmitResult{End: &end}, nil
	}

	if connID != g.turnOrder[g.currentTurnIndex] {
		return SubmitResult{}, ErrNotYourTurn
	}

	word := strings.TrimSpace(rawWord)
	if word == "" {
		return SubmitResult{}, ErrEmptyWord
	}

	res := SubmitResult{}

	// Plausibility is a soft check: the room is warned, the word counts.
	if !hangulWord.MatchString(word) {
		res.FormatWarning = true
	}

	if _, seen := g.used[word]; seen {
		end := g.end(EndReasonDuplicateWord)
		res.End = &end
		return res, nil
	}

	if g.lastWord != "" {
		lastChar, _ := utf8.DecodeLastRuneInString(g.lastWord)
		firstChar, _ := utf8.DecodeRuneInString(word)
		if lastChar != firstChar {
			end := g.end(EndReasonChainViolation)
			res.End = &end
			return res, nil
		}
	}

	g.lastWord = word
	g.usedWords = append(g.usedWords, word)
	g.used[word] = struct{}{}

	gained := utf8.RuneCountInString(word) * PointsPerRune
	g.scores[connID] += gained

	res.Accepted = true
	res.Word = word
	res.Gained = gained
	res.TotalScore = g.scores[connID]

	g.currentTurnIndex = (g.currentTurnIndex + 1) % len(g.turnOrder)
	if g.currentTurnIndex == 0 {
		g.round++
		if g.round > g.maxRounds {
			end := g.end(EndReasonRoundsComplete)
			res.End = &end
			return res, nil
		}
	}
	g.turnDeadline = now.Add(TurnDuration)

	return res, nil
}

// RemovePlayer takes a departing connection out of the turn order. With fewer
// than MinPlayers remaining the game force-ends; otherwise the current turn
// index is clamped back into range and, when the turn holder changed, the
// deadline restarts so the inheriting player gets a full turn.
func (g *Game) RemovePlayer(connID string, now time.Time) RemoveResult {
	if !g.active {
		return RemoveResult{}
	}

	idx := -1
	for i, id := range g.turnOrder {
		if id == connID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return RemoveResult{}
	}

	g.turnOrder = append(g.turnOrder[:idx], g.turnOrder[idx+1:]...)

	if len(g.turnOrder) < MinPlayers {
		end := g.end(EndReasonInsufficientPlayers)
		return RemoveResult{Removed: true, End: &end}
	}

	res := RemoveResult{Removed: true}

	switch {
	case idx < g.currentTurnIndex:
		g.currentTurnIndex--
		res.TurnChanged = true
	case idx == g.currentTurnIndex:
		if g.currentTurnIndex >= len(g.turnOrder) {
			g.currentTurnIndex = 0
		}
		g.turnDeadline = now.Add(TurnDuration)
		res.TurnChanged = true
	}

	return res
}

// end deactivates the game and computes the final result. The winner is the
// strictly highest score; ties go to the earliest position in the game-start
// turn order, so the outcome never depends on map iteration order.
func (g *Game) end(reason string) EndResult {
	g.active = false

	scores := make(map[string]int, len(g.scores))
	for id, score := range g.scores {
		scores[id] = score
	}

	winnerID := ""
	bestScore := -1
	for _, id := range g.startOrder {
		if score, ok := g.scores[id]; ok && score > bestScore {
			bestScore = score
			winnerID = id
		}
	}

	return EndResult{Reason: reason, WinnerID: winnerID, Scores: scores}
}

// GameSnapshot is the serialized game state embedded in room snapshots.
type GameSnapshot struct {
	IsActive      bool           `json:"isActive"`
	CurrentTurnID string         `json:"currentTurnId"`
	LastWord      string         `json:"lastWord"`
	UsedCount     int            `json:"usedCount"`
	Scores        map[string]int `json:"scores"`
	Round         int            `json:"round"`
	MaxRounds     int            `json:"maxRounds"`
	TurnDeadline  int64          `json:"turnDeadline"`
}

// Snapshot serializes the game for broadcasting.
func (g *Game) Snapshot() GameSnapshot {
	scores := make(map[string]int, len(g.scores))
	for id, score := range g.scores {
		scores[id] = score
	}

	var deadline int64
	if g.active {
		deadline = g.turnDeadline.UnixMilli()
	}

	return GameSnapshot{
		IsActive:      g.active,
		CurrentTurnID: g.CurrentTurnID(),
		LastWord:      g.lastWord,
		UsedCount:     len(g.usedWords),
		Scores:        scores,
		Round:         g.round,
		MaxRounds:     g.maxRounds,
		TurnDeadline:  deadline,
	}
}
