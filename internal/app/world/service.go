/*
Package world contains the core logic of the plaza server.

This file defines the Service, the single entry point for every inbound client
intent. It resolves the session, applies the mutation under the owning
component's lock, and fans the resulting events out through the Publisher.
Broadcasts never happen inside a critical section and no intent handler blocks
on I/O; the one persistent side effect (recording a finished game) runs on its
own goroutine.
*/
package world

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wordplaza/internal/pkg/logx"
	"wordplaza/internal/pkg/randx"
)

// recordResultTimeout bounds the stats write for one completed game.
const recordResultTimeout = 5 * time.Second

// GameRecorder is the narrow interface to the stats collaborator. It is
// invoked exactly once per completed game.
type GameRecorder interface {
	RecordGameResult(ctx context.Context, winnerID string, participantIDs []string) error
}

// BoundAccount carries the registered identity a websocket connection
// presented at handshake time, if any.
type BoundAccount struct {
	ID       string
	Nickname string
}

// Service orchestrates sessions, the plaza, the room directory and the game
// engine behind one intent-per-method surface.
type Service struct {
	pub      Publisher
	registry *Registry
	plaza    *Plaza
	rooms    *Directory
	recorder GameRecorder
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService wires a Service. recorder may be nil (results are then only
// logged); nowFn may be nil to use the system clock.
func NewService(pub Publisher, recorder GameRecorder, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		pub:      pub,
		registry: NewRegistry(),
		plaza:    NewPlaza(),
		rooms:    NewDirectory(),
		recorder: recorder,
		now:      nowFn,
		logger:   logx.Logger().With().Str("component", "World").Logger(),
	}
}

// Login establishes the connection's identity, places it in the plaza and
// returns the full world state. Repeat logins are silently ignored.
func (s *Service) Login(connID, requestedName string, account *BoundAccount) {
	userID, err := randx.UserID()
	if err != nil {
		s.logger.Error().Err(err).Str("conn_id", connID).Msg("Failed to generate user id, dropping login.")
		return
	}

	accountID := ""
	fallbackName := ""
	if account != nil {
		accountID = account.ID
		fallbackName = account.Nickname
	}

	sess, created := s.registry.Login(connID, requestedName, userID, accountID, fallbackName)
	if !created {
		return
	}

	player := s.plaza.Join(connID, sess.UserID, sess.Name)
	s.pub.Subscribe(ChannelPlaza, connID)

	s.pub.SendTo(connID, Event{Type: TypeLoginSuccess, Payload: LoginSuccessPayload{
		SelfID: connID,
		UserID: sess.UserID,
		Name:   sess.Name,
		Plaza:  s.plaza.Snapshot(),
		Rooms:  s.rooms.List(),
	}})

	s.pub.PublishExcept(ChannelPlaza, connID, Event{Type: TypePlazaJoin, Payload: player})

	s.logger.Info().
		Str("conn_id", connID).
		Str("user_id", sess.UserID).
		Str("name", sess.Name).
		Bool("registered", accountID != "").
		Msg("Player logged in.")
}

// PlazaMove applies a position update and echoes it to the whole plaza,
// mover included.
func (s *Service) PlazaMove(connID string, move PlazaMovePayload) {
	player, ok := s.plaza.Move(connID, move)
	if !ok {
		return
	}

	s.pub.Publish(ChannelPlaza, Event{Type: TypePlazaMove, Payload: player})
}

// PlazaChat broadcasts a chat line to the plaza. Blank lines are dropped.
func (s *Service) PlazaChat(connID, text string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	msg := strings.TrimSpace(text)
	if msg == "" {
		return
	}

	s.pub.Publish(ChannelPlaza, Event{Type: TypePlazaChat, Payload: ChatMessage{
		ID:     connID,
		UserID: sess.UserID,
		Name:   sess.Name,
		Text:   msg,
		Time:   s.now().UnixMilli(),
	}})
}

// CreateRoom creates a room, joins the creator into it and refreshes the
// global room listing.
func (s *Service) CreateRoom(connID, name string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	room, err := s.rooms.Create(name)
	if err != nil {
		s.logger.Error().Err(err).Str("conn_id", connID).Msg("Failed to create room.")
		return
	}

	s.enterRoom(sess, room)
	s.pub.Broadcast(Event{Type: TypeRoomList, Payload: s.rooms.List()})
}

// JoinRoom moves the connection into the target room, leaving any current
// room first: a connection is a member of at most one room.
func (s *Service) JoinRoom(connID, roomID string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	room := s.rooms.Get(roomID)
	if room == nil {
		s.systemMessage(connID, roomID, "Room not found.")
		return
	}

	s.enterRoom(sess, room)
	s.pub.Broadcast(Event{Type: TypeRoomList, Payload: s.rooms.List()})
}

// enterRoom performs the membership switch and the member-facing broadcasts.
func (s *Service) enterRoom(sess Session, room *Room) {
	if sess.RoomID != "" && sess.RoomID != room.ID {
		s.leaveCurrentRoom(sess.ConnID)
	}

	room.Join(sess.ConnID)
	s.registry.SetRoom(sess.ConnID, room.ID)
	s.pub.Subscribe(room.ID, sess.ConnID)

	s.pub.Publish(room.ID, Event{Type: TypeRoomState, Payload: room.Snapshot()})
	s.pub.SendTo(sess.ConnID, Event{Type: TypeRoomJoined, Payload: RoomJoinedPayload{RoomID: room.ID}})
}

// LeaveRoom removes the connection from its current room (if any) and
// refreshes the global room listing.
func (s *Service) LeaveRoom(connID string) {
	s.leaveCurrentRoom(connID)
	s.pub.Broadcast(Event{Type: TypeRoomList, Payload: s.rooms.List()})
}

// leaveCurrentRoom performs the departure: membership removal with game
// reconciliation, room destruction when emptied, and the survivor-facing
// broadcasts. Calling it without a current room is a no-op.
func (s *Service) leaveCurrentRoom(connID string) {
	sess, ok := s.registry.Get(connID)
	if !ok || sess.RoomID == "" {
		return
	}

	roomID := sess.RoomID
	s.registry.SetRoom(connID, "")
	s.pub.Unsubscribe(roomID, connID)

	room := s.rooms.Get(roomID)
	if room == nil {
		return
	}

	res := room.Leave(connID, s.now())
	if !res.Removed {
		return
	}

	if res.Empty {
		s.rooms.Remove(roomID)
		return
	}

	// Game reconciliation is broadcast before the room snapshot so that
	// survivors never observe a stale turn holder.
	if res.End != nil {
		s.finishGame(room, res.End)
	} else if res.TurnChanged {
		s.pub.Publish(roomID, Event{Type: TypeWordGameTurn, Payload: GameStatePayload{
			RoomID: roomID,
			State:  room.Snapshot(),
		}})
	}

	s.pub.Publish(roomID, Event{Type: TypeRoomState, Payload: room.Snapshot()})
}

// RoomChat broadcasts a chat line to a room the connection is a member of.
func (s *Service) RoomChat(connID, roomID, text string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	room := s.rooms.Get(roomID)
	if room == nil || !room.HasMember(connID) {
		return
	}

	msg := strings.TrimSpace(text)
	if msg == "" {
		return
	}

	s.pub.Publish(roomID, Event{Type: TypeRoomChat, Payload: ChatMessage{
		RoomID: roomID,
		ID:     connID,
		UserID: sess.UserID,
		Name:   sess.Name,
		Text:   msg,
		Time:   s.now().UnixMilli(),
	}})
}

// StartGame starts the word-chain game in the given room on behalf of the
// requester. Rejections go back to the requester only.
func (s *Service) StartGame(connID, roomID string) {
	if _, ok := s.registry.Get(connID); !ok {
		return
	}

	room := s.rooms.Get(roomID)
	if room == nil {
		s.systemMessage(connID, roomID, "Room not found.")
		return
	}

	switch err := room.StartGame(connID, s.now()); err {
	case nil:
	case ErrNotMember:
		return
	case ErrGameActive:
		s.systemMessage(connID, roomID, "A game is already in progress.")
		return
	case ErrNotEnoughPlayers:
		s.systemMessage(connID, roomID, "At least 2 players are required.")
		return
	default:
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Unexpected start failure.")
		return
	}

	s.pub.Publish(roomID, Event{Type: TypeWordGameStarted, Payload: GameStatePayload{
		RoomID: roomID,
		State:  room.Snapshot(),
	}})
	s.pub.Publish(roomID, Event{Type: TypeWordGameSystem, Payload: SystemMessagePayload{
		RoomID: roomID,
		Msg:    "Word chain game started!",
	}})
}

// SubmitWord processes one word submission. Rejections answer the submitter
// only; fault terminations and accepted words are broadcast to the room.
func (s *Service) SubmitWord(connID, roomID, rawWord string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	room := s.rooms.Get(roomID)
	if room == nil {
		s.systemMessage(connID, roomID, "Room not found.")
		return
	}

	res, err := room.SubmitWord(connID, rawWord, s.now())
	switch err {
	case nil:
	case ErrNotMember:
		return
	case ErrGameNotActive:
		s.systemMessage(connID, roomID, "The game has not started yet.")
		return
	case ErrNotYourTurn:
		s.systemMessage(connID, roomID, "It's not your turn.")
		return
	case ErrEmptyWord:
		s.systemMessage(connID, roomID, "Blank words are not allowed.")
		return
	default:
		s.logger.Error().Err(err).Str("room_id", roomID).Msg("Unexpected submit failure.")
		return
	}

	word := strings.TrimSpace(rawWord)

	if res.FormatWarning {
		s.pub.Publish(roomID, Event{Type: TypeWordGameSystem, Payload: SystemMessagePayload{
			RoomID: roomID,
			Msg:    fmt.Sprintf("%s's word (%s) is not in the dictionary, counting it anyway.", sess.Name, word),
		}})
	}

	if !res.Accepted {
		// A fault termination: the submission was rejected and it ended
		// the game for the whole room.
		var msg string
		switch res.End.Reason {
		case EndReasonTimeout:
			msg = "Time is up! Round over."
		case EndReasonDuplicateWord:
			msg = fmt.Sprintf("%s used an already played word (%s). Round over!", sess.Name, word)
		case EndReasonChainViolation:
			msg = fmt.Sprintf("%s broke the chain rule (%s). Round over!", sess.Name, word)
		}
		s.pub.Publish(roomID, Event{Type: TypeWordGameSystem, Payload: SystemMessagePayload{
			RoomID: roomID,
			Msg:    msg,
		}})
		s.finishGame(room, res.End)
		return
	}

	s.pub.Publish(roomID, Event{Type: TypeWordSubmitted, Payload: WordSubmittedPayload{
		RoomID:     roomID,
		ID:         connID,
		UserID:     sess.UserID,
		Name:       sess.Name,
		Word:       res.Word,
		Gained:     res.Gained,
		TotalScore: res.TotalScore,
	}})

	if res.End != nil {
		s.finishGame(room, res.End)
		return
	}

	s.pub.Publish(roomID, Event{Type: TypeWordGameTurn, Payload: GameStatePayload{
		RoomID: roomID,
		State:  room.Snapshot(),
	}})
}

// Disconnect tears down everything the connection touched: plaza presence,
// room membership (with game reconciliation), and the session itself. Safe to
// call for connections that never logged in, and safe to call twice.
func (s *Service) Disconnect(connID string) {
	sess, ok := s.registry.Get(connID)
	if !ok {
		return
	}

	left := s.plaza.Leave(connID)
	s.pub.Unsubscribe(ChannelPlaza, connID)

	s.leaveCurrentRoom(connID)
	s.pub.Broadcast(Event{Type: TypeRoomList, Payload: s.rooms.List()})

	if left {
		s.pub.Publish(ChannelPlaza, Event{Type: TypePlazaLeave, Payload: PlazaLeavePayload{ID: connID}})
	}

	s.registry.Remove(connID)

	s.logger.Info().
		Str("conn_id", connID).
		Str("user_id", sess.UserID).
		Msg("Player disconnected.")
}

// finishGame broadcasts the termination and hands the result to the stats
// recorder, once, off the event-handling path.
func (s *Service) finishGame(room *Room, end *EndResult) {
	s.pub.Publish(room.ID, Event{Type: TypeWordGameEnded, Payload: GameEndedPayload{
		RoomID:   room.ID,
		Reason:   end.Reason,
		WinnerID: end.WinnerID,
		Scores:   end.Scores,
	}})

	s.logger.Info().
		Str("room_id", room.ID).
		Str("reason", end.Reason).
		Str("winner_id", end.WinnerID).
		Msg("Game ended.")

	s.recordResult(end)
}

// recordResult resolves the participating connections to registered accounts
// and reports the game outcome. Guests are skipped; sessions of players who
// disconnected earlier in the game can no longer be resolved and are skipped
// as well.
func (s *Service) recordResult(end *EndResult) {
	if s.recorder == nil {
		return
	}

	winnerAccount := ""
	participants := make([]string, 0, len(end.Scores))

	for connID := range end.Scores {
		sess, ok := s.registry.Get(connID)
		if !ok || sess.AccountID == "" {
			continue
		}
		participants = append(participants, sess.AccountID)
		if connID == end.WinnerID {
			winnerAccount = sess.AccountID
		}
	}

	if len(participants) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordResultTimeout)
		defer cancel()

		if err := s.recorder.RecordGameResult(ctx, winnerAccount, participants); err != nil {
			s.logger.Error().Err(err).Msg("Failed to record game result.")
		}
	}()
}

// systemMessage answers a single connection with a game system line.
func (s *Service) systemMessage(connID, roomID, msg string) {
	s.pub.SendTo(connID, Event{Type: TypeWordGameSystem, Payload: SystemMessagePayload{
		RoomID: roomID,
		Msg:    msg,
	}})
}
