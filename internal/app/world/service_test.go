package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// fakePublisher records every fan-out the service performs, in order.
type fakePublisher struct {
	mu    sync.Mutex
	subs  map[string]map[string]bool
	calls []pubCall
}

type pubCall struct {
	kind    string // publish, publishExcept, broadcast, sendTo
	channel string
	target  string // excluded conn for publishExcept, recipient for sendTo
	event   Event
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{subs: make(map[string]map[string]bool)}
}

func (f *fakePublisher) Subscribe(channel, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[channel] == nil {
		f.subs[channel] = make(map[string]bool)
	}
	f.subs[channel][connID] = true
}

func (f *fakePublisher) Unsubscribe(channel, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[channel], connID)
}

func (f *fakePublisher) Publish(channel string, event Event) {
	f.record(pubCall{kind: "publish", channel: channel, event: event})
}

func (f *fakePublisher) PublishExcept(channel, exceptConnID string, event Event) {
	f.record(pubCall{kind: "publishExcept", channel: channel, target: exceptConnID, event: event})
}

func (f *fakePublisher) Broadcast(event Event) {
	f.record(pubCall{kind: "broadcast", event: event})
}

func (f *fakePublisher) SendTo(connID string, event Event) {
	f.record(pubCall{kind: "sendTo", target: connID, event: event})
}

func (f *fakePublisher) record(c pubCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakePublisher) subscribed(channel, connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[channel][connID]
}

// ofType returns every recorded call carrying an event of the given type.
func (f *fakePublisher) ofType(eventType string) []pubCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []pubCall
	for _, c := range f.calls {
		if c.event.Type == eventType {
			out = append(out, c)
		}
	}
	return out
}

// lastOfType returns the most recent call carrying an event of the given type.
func (f *fakePublisher) lastOfType(eventType string) (pubCall, bool) {
	calls := f.ofType(eventType)
	if len(calls) == 0 {
		return pubCall{}, false
	}
	return calls[len(calls)-1], true
}

func (f *fakePublisher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// fakeRecorder captures game results; done signals each asynchronous call.
type fakeRecorder struct {
	mu      sync.Mutex
	winners []string
	rosters [][]string
	done    chan struct{}
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{done: make(chan struct{}, 8)}
}

func (f *fakeRecorder) RecordGameResult(_ context.Context, winnerID string, participantIDs []string) error {
	f.mu.Lock()
	f.winners = append(f.winners, winnerID)
	f.rosters = append(f.rosters, append([]string(nil), participantIDs...))
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.winners)
}

type ServiceSuite struct {
	suite.Suite
	pub      *fakePublisher
	recorder *fakeRecorder
	service  *Service
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.pub = newFakePublisher()
	s.recorder = newFakeRecorder()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.service = NewService(s.pub, s.recorder, func() time.Time { return s.now })
}

func (s *ServiceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

// login is shorthand for a guest login.
func (s *ServiceSuite) login(connID, name string) {
	s.service.Login(connID, name, nil)
}

// createRoom creates a room through connID and returns its id.
func (s *ServiceSuite) createRoom(connID, name string) string {
	s.service.CreateRoom(connID, name)

	for _, c := range s.pub.ofType(TypeRoomJoined) {
		if c.kind == "sendTo" && c.target == connID {
			return c.event.Payload.(RoomJoinedPayload).RoomID
		}
	}

	s.Require().FailNow("no roomJoined event for " + connID)
	return ""
}

// waitRecorded blocks until the recorder has been invoked once.
func (s *ServiceSuite) waitRecorded() {
	select {
	case <-s.recorder.done:
	case <-time.After(2 * time.Second):
		s.Require().FailNow("recorder was not invoked")
	}
}

// Login tests

func (s *ServiceSuite) TestLoginDeliversWorldState() {
	s.login("c1", "철수")

	call, ok := s.pub.lastOfType(TypeLoginSuccess)
	s.Require().True(ok)
	s.Equal("sendTo", call.kind)
	s.Equal("c1", call.target)

	payload := call.event.Payload.(LoginSuccessPayload)
	s.Equal("c1", payload.SelfID)
	s.Equal("철수", payload.Name)
	s.Len(payload.UserID, 6)
	s.Equal(PlazaMapID, payload.Plaza.MapID)
	s.Len(payload.Plaza.Players, 1)
	s.Empty(payload.Rooms)

	s.True(s.pub.subscribed(ChannelPlaza, "c1"))
}

func (s *ServiceSuite) TestLoginAnnouncesJoinToOthersOnly() {
	s.login("c1", "철수")

	call, ok := s.pub.lastOfType(TypePlazaJoin)
	s.Require().True(ok)
	s.Equal("publishExcept", call.kind)
	s.Equal(ChannelPlaza, call.channel)
	s.Equal("c1", call.target)

	player := call.event.Payload.(Player)
	s.Equal("c1", player.ID)
	s.Equal(float64(SpawnX), player.X)
	s.Equal(float64(SpawnY), player.Y)
}

func (s *ServiceSuite) TestLoginRepeatIsSilent() {
	s.login("c1", "철수")
	s.pub.reset()

	s.login("c1", "영희")

	s.Empty(s.pub.ofType(TypeLoginSuccess))
	s.Empty(s.pub.ofType(TypePlazaJoin))
}

func (s *ServiceSuite) TestLoginBlankNameFallsBackToGuest() {
	s.login("c1", "   ")

	call, _ := s.pub.lastOfType(TypeLoginSuccess)
	s.Equal(DefaultDisplayName, call.event.Payload.(LoginSuccessPayload).Name)
}

func (s *ServiceSuite) TestLoginBlankNamePrefersAccountNickname() {
	s.service.Login("c1", "", &BoundAccount{ID: "acct-1", Nickname: "User_abc"})

	call, _ := s.pub.lastOfType(TypeLoginSuccess)
	s.Equal("User_abc", call.event.Payload.(LoginSuccessPayload).Name)
}

// Plaza tests

func (s *ServiceSuite) TestPlazaMoveEchoesToEveryone() {
	s.login("c1", "철수")

	x, y := 120.5, 80.0
	s.service.PlazaMove("c1", PlazaMovePayload{X: &x, Y: &y, Facing: FacingLeft, State: StateWalk})

	call, ok := s.pub.lastOfType(TypePlazaMove)
	s.Require().True(ok)
	s.Equal("publish", call.kind)
	s.Equal(ChannelPlaza, call.channel)

	player := call.event.Payload.(Player)
	s.Equal(120.5, player.X)
	s.Equal(FacingLeft, player.Facing)
	s.Equal(StateWalk, player.State)
}

func (s *ServiceSuite) TestPlazaMoveWithoutLoginIsDropped() {
	s.service.PlazaMove("ghost", PlazaMovePayload{})
	s.Empty(s.pub.ofType(TypePlazaMove))
}

func (s *ServiceSuite) TestPlazaChatCarriesIdentityAndTime() {
	s.login("c1", "철수")

	s.service.PlazaChat("c1", "  안녕하세요  ")

	call, ok := s.pub.lastOfType(TypePlazaChat)
	s.Require().True(ok)

	msg := call.event.Payload.(ChatMessage)
	s.Equal("c1", msg.ID)
	s.Equal("철수", msg.Name)
	s.Equal("안녕하세요", msg.Text)
	s.Equal(s.now.UnixMilli(), msg.Time)
	s.Empty(msg.RoomID)
}

func (s *ServiceSuite) TestPlazaChatDropsBlankLines() {
	s.login("c1", "철수")
	s.service.PlazaChat("c1", "   ")
	s.Empty(s.pub.ofType(TypePlazaChat))
}

// Room lifecycle tests

func (s *ServiceSuite) TestCreateRoomJoinsCreatorAndRefreshesListing() {
	s.login("c1", "철수")

	roomID := s.createRoom("c1", "끝말잇기 한판")

	s.True(s.pub.subscribed(roomID, "c1"))

	state, ok := s.pub.lastOfType(TypeRoomState)
	s.Require().True(ok)
	snap := state.event.Payload.(RoomSnapshot)
	s.Equal("끝말잇기 한판", snap.Name)
	s.Equal([]string{"c1"}, snap.Players)
	s.False(snap.WordGame.IsActive)

	listing, ok := s.pub.lastOfType(TypeRoomList)
	s.Require().True(ok)
	s.Equal("broadcast", listing.kind)
	summaries := listing.event.Payload.([]RoomSummary)
	s.Require().Len(summaries, 1)
	s.Equal(roomID, summaries[0].ID)
	s.Equal(1, summaries[0].PlayerCount)
}

func (s *ServiceSuite) TestJoinUnknownRoomAnswersRequesterOnly() {
	s.login("c1", "철수")

	s.service.JoinRoom("c1", "room_zzzzzz")

	call, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("sendTo", call.kind)
	s.Equal("c1", call.target)
	s.Equal("Room not found.", call.event.Payload.(SystemMessagePayload).Msg)
}

func (s *ServiceSuite) TestJoinSecondRoomLeavesFirst() {
	s.login("c1", "철수")
	s.login("c2", "영희")

	first := s.createRoom("c1", "방 하나")
	second := s.createRoom("c2", "방 둘")

	s.service.JoinRoom("c1", second)

	s.False(s.pub.subscribed(first, "c1"))
	s.True(s.pub.subscribed(second, "c1"))

	// The first room emptied and was destroyed.
	listing, _ := s.pub.lastOfType(TypeRoomList)
	summaries := listing.event.Payload.([]RoomSummary)
	s.Require().Len(summaries, 1)
	s.Equal(second, summaries[0].ID)
	s.Equal(2, summaries[0].PlayerCount)
}

func (s *ServiceSuite) TestLeaveLastMemberDestroysRoom() {
	s.login("c1", "철수")
	s.createRoom("c1", "빈 방")

	s.service.LeaveRoom("c1")

	listing, ok := s.pub.lastOfType(TypeRoomList)
	s.Require().True(ok)
	s.Empty(listing.event.Payload.([]RoomSummary))
}

func (s *ServiceSuite) TestLeaveSurvivorsSeeFreshSnapshot() {
	s.login("c1", "철수")
	s.login("c2", "영희")
	roomID := s.createRoom("c1", "같이 놀자")
	s.service.JoinRoom("c2", roomID)
	s.pub.reset()

	s.service.LeaveRoom("c2")

	state, ok := s.pub.lastOfType(TypeRoomState)
	s.Require().True(ok)
	s.Equal(roomID, state.channel)
	s.Equal([]string{"c1"}, state.event.Payload.(RoomSnapshot).Players)
}

func (s *ServiceSuite) TestRoomChatOnlyForMembers() {
	s.login("c1", "철수")
	s.login("c2", "영희")
	roomID := s.createRoom("c1", "우리 방")

	s.service.RoomChat("c2", roomID, "들여보내줘")
	s.Empty(s.pub.ofType(TypeRoomChat))

	s.service.RoomChat("c1", roomID, "어서와")

	call, ok := s.pub.lastOfType(TypeRoomChat)
	s.Require().True(ok)
	msg := call.event.Payload.(ChatMessage)
	s.Equal(roomID, msg.RoomID)
	s.Equal("어서와", msg.Text)
}

// Game orchestration tests

// setupGame logs two players into one room and starts the game.
func (s *ServiceSuite) setupGame() string {
	s.login("c1", "철수")
	s.login("c2", "영희")
	roomID := s.createRoom("c1", "게임방")
	s.service.JoinRoom("c2", roomID)
	s.service.StartGame("c1", roomID)
	return roomID
}

func (s *ServiceSuite) TestStartGameBroadcastsStateAndAnnouncement() {
	roomID := s.setupGame()

	started, ok := s.pub.lastOfType(TypeWordGameStarted)
	s.Require().True(ok)
	s.Equal(roomID, started.channel)

	state := started.event.Payload.(GameStatePayload).State
	s.True(state.WordGame.IsActive)
	s.Equal("c1", state.WordGame.CurrentTurnID)
	s.Equal([]string{"c1", "c2"}, state.Players)

	system, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("publish", system.kind)
	s.Equal("Word chain game started!", system.event.Payload.(SystemMessagePayload).Msg)
}

func (s *ServiceSuite) TestStartGameAloneIsRejected() {
	s.login("c1", "철수")
	roomID := s.createRoom("c1", "혼자")

	s.service.StartGame("c1", roomID)

	call, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("sendTo", call.kind)
	s.Equal("c1", call.target)
	s.Equal("At least 2 players are required.", call.event.Payload.(SystemMessagePayload).Msg)
	s.Empty(s.pub.ofType(TypeWordGameStarted))
}

func (s *ServiceSuite) TestStartGameTwiceIsRejected() {
	roomID := s.setupGame()
	s.pub.reset()

	s.service.StartGame("c2", roomID)

	call, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("A game is already in progress.", call.event.Payload.(SystemMessagePayload).Msg)
}

func (s *ServiceSuite) TestSubmitWordBroadcastsScoreAndNextTurn() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.pub.reset()

	s.service.SubmitWord("c1", roomID, "사과")

	submitted, ok := s.pub.lastOfType(TypeWordSubmitted)
	s.Require().True(ok)
	payload := submitted.event.Payload.(WordSubmittedPayload)
	s.Equal("사과", payload.Word)
	s.Equal(20, payload.Gained)
	s.Equal(20, payload.TotalScore)
	s.Equal("철수", payload.Name)

	turn, ok := s.pub.lastOfType(TypeWordGameTurn)
	s.Require().True(ok)
	s.Equal("c2", turn.event.Payload.(GameStatePayload).State.WordGame.CurrentTurnID)
}

func (s *ServiceSuite) TestSubmitWordOutOfTurnAnswersSubmitterOnly() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.pub.reset()

	s.service.SubmitWord("c2", roomID, "사과")

	call, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("sendTo", call.kind)
	s.Equal("c2", call.target)
	s.Equal("It's not your turn.", call.event.Payload.(SystemMessagePayload).Msg)
	s.Empty(s.pub.ofType(TypeWordSubmitted))
}

func (s *ServiceSuite) TestSubmitWordBeforeStartIsRejected() {
	s.login("c1", "철수")
	roomID := s.createRoom("c1", "대기실")

	s.service.SubmitWord("c1", roomID, "사과")

	call, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("The game has not started yet.", call.event.Payload.(SystemMessagePayload).Msg)
}

func (s *ServiceSuite) TestSubmitWordFormatWarningReachesWholeRoom() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.pub.reset()

	s.service.SubmitWord("c1", roomID, "apple")

	warn, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Equal("publish", warn.kind)
	s.Contains(warn.event.Payload.(SystemMessagePayload).Msg, "apple")
	s.Contains(warn.event.Payload.(SystemMessagePayload).Msg, "철수")

	// The word still counted.
	s.Len(s.pub.ofType(TypeWordSubmitted), 1)
}

func (s *ServiceSuite) TestChainViolationEndsGameForRoom() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.service.SubmitWord("c1", roomID, "사과")
	s.pub.reset()

	s.service.SubmitWord("c2", roomID, "나무")

	ended, ok := s.pub.lastOfType(TypeWordGameEnded)
	s.Require().True(ok)
	payload := ended.event.Payload.(GameEndedPayload)
	s.Equal(EndReasonChainViolation, payload.Reason)
	s.Equal("c1", payload.WinnerID)

	system, ok := s.pub.lastOfType(TypeWordGameSystem)
	s.Require().True(ok)
	s.Contains(system.event.Payload.(SystemMessagePayload).Msg, "나무")

	s.Empty(s.pub.ofType(TypeWordSubmitted))
}

func (s *ServiceSuite) TestTimeoutOnLateSubmission() {
	roomID := s.setupGame()
	s.advance(TurnDuration + time.Second)

	s.service.SubmitWord("c1", roomID, "사과")

	ended, ok := s.pub.lastOfType(TypeWordGameEnded)
	s.Require().True(ok)
	s.Equal(EndReasonTimeout, ended.event.Payload.(GameEndedPayload).Reason)
}

func (s *ServiceSuite) TestRoundsCompleteFinishesGame() {
	roomID := s.setupGame()

	chain := []struct {
		conn string
		word string
	}{
		{"c1", "사과"},
		{"c2", "과일"},
		{"c1", "일기"},
		{"c2", "기차"},
		{"c1", "차표"},
		{"c2", "표범"},
	}

	for _, turn := range chain {
		s.advance(time.Second)
		s.service.SubmitWord(turn.conn, roomID, turn.word)
	}

	ended, ok := s.pub.lastOfType(TypeWordGameEnded)
	s.Require().True(ok)
	payload := ended.event.Payload.(GameEndedPayload)
	s.Equal(EndReasonRoundsComplete, payload.Reason)
	s.Equal("c1", payload.WinnerID)
	s.Equal(map[string]int{"c1": 60, "c2": 60}, payload.Scores)

	// The final accepted word is still announced.
	s.Len(s.pub.ofType(TypeWordSubmitted), 6)
}

func (s *ServiceSuite) TestLeaveDuringGameForceEnds() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.service.SubmitWord("c1", roomID, "사과")
	s.pub.reset()

	s.service.LeaveRoom("c2")

	ended, ok := s.pub.lastOfType(TypeWordGameEnded)
	s.Require().True(ok)
	payload := ended.event.Payload.(GameEndedPayload)
	s.Equal(EndReasonInsufficientPlayers, payload.Reason)
	s.Equal("c1", payload.WinnerID)

	state, ok := s.pub.lastOfType(TypeRoomState)
	s.Require().True(ok)
	s.Equal([]string{"c1"}, state.event.Payload.(RoomSnapshot).Players)
}

// Result recording tests

func (s *ServiceSuite) TestResultRecordedOncePerGameForBoundAccounts() {
	s.service.Login("c1", "철수", &BoundAccount{ID: "acct-1", Nickname: "User_one"})
	s.service.Login("c2", "영희", &BoundAccount{ID: "acct-2", Nickname: "User_two"})
	roomID := s.createRoom("c1", "계정전")
	s.service.JoinRoom("c2", roomID)
	s.service.StartGame("c1", roomID)

	s.advance(time.Second)
	s.service.SubmitWord("c1", roomID, "사과")
	s.service.SubmitWord("c2", roomID, "나무")

	s.waitRecorded()

	s.Equal(1, s.recorder.callCount())
	s.Equal("acct-1", s.recorder.winners[0])
	s.ElementsMatch([]string{"acct-1", "acct-2"}, s.recorder.rosters[0])
}

func (s *ServiceSuite) TestGuestGamesAreNotRecorded() {
	roomID := s.setupGame()
	s.advance(time.Second)
	s.service.SubmitWord("c1", roomID, "사과")
	s.service.SubmitWord("c2", roomID, "나무")

	select {
	case <-s.recorder.done:
		s.Fail("guest-only game should not be recorded")
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *ServiceSuite) TestDisconnectDuringGameStillResolvesLeaver() {
	s.service.Login("c1", "철수", &BoundAccount{ID: "acct-1", Nickname: "User_one"})
	s.service.Login("c2", "영희", &BoundAccount{ID: "acct-2", Nickname: "User_two"})
	roomID := s.createRoom("c1", "탈주전")
	s.service.JoinRoom("c2", roomID)
	s.service.StartGame("c1", roomID)

	s.service.Disconnect("c2")

	s.waitRecorded()

	s.Equal("acct-1", s.recorder.winners[0])
	s.ElementsMatch([]string{"acct-1", "acct-2"}, s.recorder.rosters[0])
}

// Disconnect tests

func (s *ServiceSuite) TestDisconnectAnnouncesPlazaLeave() {
	s.login("c1", "철수")

	s.service.Disconnect("c1")

	call, ok := s.pub.lastOfType(TypePlazaLeave)
	s.Require().True(ok)
	s.Equal(ChannelPlaza, call.channel)
	s.Equal("c1", call.event.Payload.(PlazaLeavePayload).ID)
	s.False(s.pub.subscribed(ChannelPlaza, "c1"))
}

func (s *ServiceSuite) TestDisconnectTwiceIsIdempotent() {
	s.login("c1", "철수")
	s.service.Disconnect("c1")
	s.pub.reset()

	s.service.Disconnect("c1")

	s.Empty(s.pub.calls)
}

func (s *ServiceSuite) TestDisconnectWithoutLoginIsNoop() {
	s.service.Disconnect("ghost")
	s.Empty(s.pub.calls)
}
