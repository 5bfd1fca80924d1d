// internal/session/session.go
package session

import (
	"encoding/json"
	"sync"
)

// Color identifies a player's side. The first player in a session is always
// white, the second always black.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// AdminAuthor is the author attached to system-generated chat entries.
const AdminAuthor = "admin"

// ChatMessage is one entry in a session's append-only chat log. Author is
// either AdminAuthor or a player's color.
type ChatMessage struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Player binds a color to the transport-assigned id of a live connection. The
// core never holds transport objects; the id is all it needs to address a
// delivery.
type Player struct {
	Color  Color
	ConnID string
}

// Session is one chess room: up to two players, a turn marker, a chat log, and
// the reset/rematch toggles. Move payloads are opaque; the session does not
// know the rules of chess.
//
// All fields are guarded by Mu. Mutation goes through the *Unsafe methods with
// the lock held; snapshots for delivery are taken under the same lock so no
// network write ever happens while it is held.
type Session struct {
	Mu sync.Mutex

	ID       string
	Name     string
	Turn     Color
	Players  []Player
	Chat     []ChatMessage
	LastMove json.RawMessage

	PlayAgainRequested bool
	ResetRequested     bool

	// Ended is set once the session has been removed from the registry. Any
	// operation observing it must treat the session as gone.
	Ended bool
}

// New builds a session with its creator seated as white and the welcome chat
// entry in place.
func New(id, name, creatorConnID string) *Session {
	return &Session{
		ID:      id,
		Name:    name,
		Turn:    White,
		Players: []Player{{Color: White, ConnID: creatorConnID}},
		Chat:    []ChatMessage{{Author: AdminAuthor, Text: "Welcome to the game!"}},
	}
}

// AddPlayerUnsafe seats a second player as black. Assumes Mu is held.
func (s *Session) AddPlayerUnsafe(connID string) (Color, error) {
	if len(s.Players) >= 2 {
		return "", ErrSessionFull
	}
	s.Players = append(s.Players, Player{Color: Black, ConnID: connID})
	return Black, nil
}

// ApplyMoveUnsafe stores the move payload verbatim and flips the turn.
// Assumes Mu is held.
func (s *Session) ApplyMoveUnsafe(move json.RawMessage) {
	s.LastMove = move
	s.Turn = s.Turn.Opposite()
}

// ToggleResetUnsafe flips the reset toggle exactly once, returns the turn to
// white, and withdraws any pending rematch request. Assumes Mu is held.
func (s *Session) ToggleResetUnsafe() {
	s.ResetRequested = !s.ResetRequested
	s.Turn = White
	s.PlayAgainRequested = false
}

// TogglePlayAgainUnsafe flips the rematch toggle. Assumes Mu is held.
func (s *Session) TogglePlayAgainUnsafe() {
	s.PlayAgainRequested = !s.PlayAgainRequested
}

// AppendChatUnsafe appends one chat entry. Assumes Mu is held.
func (s *Session) AppendChatUnsafe(author, text string) {
	s.Chat = append(s.Chat, ChatMessage{Author: author, Text: text})
}

// PlayerColorUnsafe resolves a connection to its seated color. Assumes Mu is
// held.
func (s *Session) PlayerColorUnsafe(connID string) (Color, bool) {
	for _, p := range s.Players {
		if p.ConnID == connID {
			return p.Color, true
		}
	}
	return "", false
}

// HasPlayerUnsafe reports whether the connection is seated here. Assumes Mu is
// held.
func (s *Session) HasPlayerUnsafe(connID string) bool {
	_, ok := s.PlayerColorUnsafe(connID)
	return ok
}

// PeersUnsafe returns the connection ids of every participant except connID.
// Assumes Mu is held.
func (s *Session) PeersUnsafe(connID string) []string {
	peers := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if p.ConnID != connID {
			peers = append(peers, p.ConnID)
		}
	}
	return peers
}

// ParticipantsUnsafe returns the connection ids of every participant. Assumes
// Mu is held.
func (s *Session) ParticipantsUnsafe() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ConnID)
	}
	return ids
}
