package world

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PlazaSuite struct {
	suite.Suite
	plaza *Plaza
}

func TestPlazaSuite(t *testing.T) {
	suite.Run(t, new(PlazaSuite))
}

func (s *PlazaSuite) SetupTest() {
	s.plaza = NewPlaza()
}

func floatPtr(v float64) *float64 {
	return &v
}

func (s *PlazaSuite) TestJoinSpawnsAtDefaultState() {
	player := s.plaza.Join("c1", "UABCDE", "철수")

	s.Equal("c1", player.ID)
	s.Equal("UABCDE", player.UserID)
	s.Equal("철수", player.Name)
	s.Equal(float64(SpawnX), player.X)
	s.Equal(float64(SpawnY), player.Y)
	s.Equal(FacingDown, player.Facing)
	s.Equal(StateIdle, player.State)
}

func (s *PlazaSuite) TestMoveAppliesOnlyPresentFields() {
	s.plaza.Join("c1", "UABCDE", "철수")

	player, ok := s.plaza.Move("c1", PlazaMovePayload{X: floatPtr(120), Facing: FacingLeft})
	s.Require().True(ok)

	s.Equal(120.0, player.X)
	s.Equal(float64(SpawnY), player.Y)
	s.Equal(FacingLeft, player.Facing)
	s.Equal(StateIdle, player.State)
}

func (s *PlazaSuite) TestMoveIgnoresInvalidFacingAndState() {
	s.plaza.Join("c1", "UABCDE", "철수")

	player, ok := s.plaza.Move("c1", PlazaMovePayload{Facing: "sideways", State: "flying"})
	s.Require().True(ok)

	s.Equal(FacingDown, player.Facing)
	s.Equal(StateIdle, player.State)
}

func (s *PlazaSuite) TestMoveUnknownConnectionFails() {
	_, ok := s.plaza.Move("ghost", PlazaMovePayload{X: floatPtr(1)})
	s.False(ok)
}

func (s *PlazaSuite) TestLeaveRemovesPlayer() {
	s.plaza.Join("c1", "UABCDE", "철수")

	s.True(s.plaza.Leave("c1"))
	s.False(s.plaza.Leave("c1"))

	_, ok := s.plaza.Get("c1")
	s.False(ok)
}

func (s *PlazaSuite) TestSnapshotIsSortedAndDetached() {
	s.plaza.Join("c2", "UBBBBB", "영희")
	s.plaza.Join("c1", "UAAAAA", "철수")

	snap := s.plaza.Snapshot()

	s.Equal(PlazaMapID, snap.MapID)
	s.Require().Len(snap.Players, 2)
	s.Equal("c1", snap.Players[0].ID)
	s.Equal("c2", snap.Players[1].ID)

	// Mutating the snapshot must not leak back into the plaza.
	snap.Players[0].X = -1
	live, _ := s.plaza.Get("c1")
	s.Equal(float64(SpawnX), live.X)
}
