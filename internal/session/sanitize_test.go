// internal/session/sanitize_test.go
package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryView(t *testing.T) {
	s := New("42", "Alice's game", "c1")
	s.AppendChatUnsafe(string(White), "hi")
	s.ApplyMoveUnsafe(json.RawMessage(`{"from":"e2","to":"e4"}`))

	v := s.SummaryUnsafe()
	assert.Equal(t, "42", v.ID)
	assert.Equal(t, "Alice's game", v.Name)
	assert.Equal(t, Black, v.Turn)
	assert.Equal(t, 1, v.NumberOfPlayers)
	assert.Len(t, v.Chat, 2)
	assert.JSONEq(t, `{"from":"e2","to":"e4"}`, string(v.LastMove))
}

func TestRoomViewExposesPublicIDsOnly(t *testing.T) {
	s := New("42", "g", "c1")
	_, err := s.AddPlayerUnsafe("c2")
	require.NoError(t, err)

	v := s.RoomViewUnsafe()
	require.Len(t, v.Players, 2)
	assert.Equal(t, RoomPlayer{Color: White, ID: "c1"}, v.Players[0])
	assert.Equal(t, RoomPlayer{Color: Black, ID: "c2"}, v.Players[1])
	assert.Equal(t, 2, v.NumberOfPlayers)
}

// Snapshots must not alias the live chat slice: a later append may not mutate
// an already-taken view.
func TestChatSnapshotDoesNotAlias(t *testing.T) {
	s := New("42", "g", "c1")
	snap := s.ChatSnapshotUnsafe()
	s.AppendChatUnsafe(string(White), "later")

	assert.Len(t, snap, 1)
	assert.Len(t, s.Chat, 2)
}

func TestToggleResetSemantics(t *testing.T) {
	s := New("42", "g", "c1")
	s.ApplyMoveUnsafe(json.RawMessage(`{}`))
	s.TogglePlayAgainUnsafe()
	require.Equal(t, Black, s.Turn)
	require.True(t, s.PlayAgainRequested)

	s.ToggleResetUnsafe()
	assert.True(t, s.ResetRequested)
	assert.Equal(t, White, s.Turn)
	assert.False(t, s.PlayAgainRequested)

	s.ToggleResetUnsafe()
	assert.False(t, s.ResetRequested)
}

func TestAddPlayerFull(t *testing.T) {
	s := New("42", "g", "c1")
	color, err := s.AddPlayerUnsafe("c2")
	require.NoError(t, err)
	assert.Equal(t, Black, color)

	_, err = s.AddPlayerUnsafe("c3")
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Len(t, s.Players, 2)
}
