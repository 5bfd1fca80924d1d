// internal/session/sanitize.go
package session

import "encoding/json"

// SummaryView is the lobby projection of a session: the player list is reduced
// to a count so connection identity never reaches clients browsing the lobby.
type SummaryView struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Turn               Color           `json:"turn"`
	Chat               []ChatMessage   `json:"chat"`
	LastMove           json.RawMessage `json:"lastMove,omitempty"`
	PlayAgainRequested bool            `json:"playAgainRequested"`
	ResetRequested     bool            `json:"resetRequested"`
	NumberOfPlayers    int             `json:"numberOfPlayers"`
}

// RoomPlayer is a participant as seen by the other participant: color plus the
// transport's public connection id, never the connection itself.
type RoomPlayer struct {
	Color Color  `json:"color"`
	ID    string `json:"id"`
}

// RoomView is the in-room projection of a session, sent to participants after
// every mutation.
type RoomView struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Turn               Color           `json:"turn"`
	Chat               []ChatMessage   `json:"chat"`
	LastMove           json.RawMessage `json:"lastMove,omitempty"`
	PlayAgainRequested bool            `json:"playAgainRequested"`
	ResetRequested     bool            `json:"resetRequested"`
	Players            []RoomPlayer    `json:"players"`
	NumberOfPlayers    int             `json:"numberOfPlayers"`
}

// SummaryUnsafe projects the session for the lobby list. Assumes Mu is held.
func (s *Session) SummaryUnsafe() SummaryView {
	return SummaryView{
		ID:                 s.ID,
		Name:               s.Name,
		Turn:               s.Turn,
		Chat:               s.ChatSnapshotUnsafe(),
		LastMove:           s.LastMove,
		PlayAgainRequested: s.PlayAgainRequested,
		ResetRequested:     s.ResetRequested,
		NumberOfPlayers:    len(s.Players),
	}
}

// RoomViewUnsafe projects the session for in-room delivery. Assumes Mu is
// held.
func (s *Session) RoomViewUnsafe() RoomView {
	players := make([]RoomPlayer, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, RoomPlayer{Color: p.Color, ID: p.ConnID})
	}
	return RoomView{
		ID:                 s.ID,
		Name:               s.Name,
		Turn:               s.Turn,
		Chat:               s.ChatSnapshotUnsafe(),
		LastMove:           s.LastMove,
		PlayAgainRequested: s.PlayAgainRequested,
		ResetRequested:     s.ResetRequested,
		Players:            players,
		NumberOfPlayers:    len(s.Players),
	}
}

// ChatSnapshotUnsafe copies the chat log so deliveries never alias the live
// slice. Assumes Mu is held.
func (s *Session) ChatSnapshotUnsafe() []ChatMessage {
	chat := make([]ChatMessage, len(s.Chat))
	copy(chat, s.Chat)
	return chat
}
