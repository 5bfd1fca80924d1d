// internal/session/manager.go
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Outbound event names emitted by the manager. Inbound names live with the
// websocket handler; these are the ones clients listen for.
const (
	EventGames       = "games"
	EventGameCreated = "your-game-created"
	EventColor       = "color"
	EventGameUpdated = "game-updated"
	EventChatUpdated = "chat-updated"
	EventEndGame     = "end-game"
	EventError       = "error"
)

// Broadcaster is the transport capability the manager emits through. The
// manager never touches connections directly; it addresses them by the
// transport's public id. Implementations must not block the caller.
type Broadcaster interface {
	// Deliver sends one event to one connection.
	Deliver(connID, event string, payload any)
	// ToRoom sends one event to every connection joined to a room.
	ToRoom(room, event string, payload any)
	// ToRoomExcept is ToRoom minus one connection, used for signal relay
	// where the sender must not hear its own echo.
	ToRoomExcept(room, skipConnID, event string, payload any)
	// ToAll sends one event to every connection.
	ToAll(event string, payload any)
	// Join and Leave maintain transport-level room membership.
	Join(room, connID string)
	Leave(room, connID string)
}

// Recorder receives session lifecycle records for out-of-process consumers.
// Implementations must not block.
type Recorder interface {
	Record(event, sessionID, connID string)
}

// ErrorPayload is the body of an "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Manager owns the session lifecycle: every mutation of the registry funnels
// through it, and after each mutation it emits sanitized snapshots through the
// Broadcaster. Snapshots are always taken under the session lock and emitted
// after it is released, so no delivery happens while a lock is held.
//
// The connection-to-session association is an explicit side table here rather
// than state smuggled onto transport objects.
type Manager struct {
	registry *Registry
	bus      Broadcaster
	history  Recorder // optional; nil disables recording
	log      *logrus.Logger

	mu     sync.RWMutex
	joined map[string]string // connID -> sessionID
}

// NewManager wires a lifecycle manager. history may be nil.
func NewManager(registry *Registry, bus Broadcaster, history Recorder, log *logrus.Logger) *Manager {
	return &Manager{
		registry: registry,
		bus:      bus,
		history:  history,
		log:      log,
		joined:   make(map[string]string),
	}
}

// Registry exposes the underlying store for read-only callers (the REST list
// endpoint and tests).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// SendGamesList delivers the current lobby list to one connection. Called on
// connect so every client starts with a snapshot.
func (m *Manager) SendGamesList(connID string) {
	m.bus.Deliver(connID, EventGames, m.registry.ListSanitized())
}

// BroadcastGamesList pushes the lobby list to every connection. Callers invoke
// it after structural changes; EndSession deliberately does not.
func (m *Manager) BroadcastGamesList() {
	m.bus.ToAll(EventGames, m.registry.ListSanitized())
}

// CreateGame registers a new session under a caller-supplied id and seats the
// creator as white. A duplicate id is rejected with an error event; a
// connection already seated somewhere is refused, preserving the one-session-
// per-connection invariant.
func (m *Manager) CreateGame(connID, name, id string) error {
	if id == "" {
		m.bus.Deliver(connID, EventError, ErrorPayload{Message: "game id must not be empty"})
		return errors.New("empty session id")
	}
	if current, ok := m.sessionFor(connID); ok {
		m.log.Warnf("connection %s attempted create-game while in session %s", connID, current)
		return ErrSessionConflict
	}

	s, err := m.registry.Create(connID, name, id)
	if err != nil {
		m.log.Warnf("create-game conflict on id %s from connection %s", id, connID)
		m.bus.Deliver(connID, EventError, ErrorPayload{Message: "game id already in use"})
		return err
	}

	m.associate(connID, id)
	m.bus.Join(id, connID)

	s.Mu.Lock()
	room := s.RoomViewUnsafe()
	s.Mu.Unlock()

	m.bus.Deliver(connID, EventGameCreated, id)
	m.bus.Deliver(connID, EventColor, White)
	m.bus.ToRoom(id, EventGameUpdated, room)
	m.BroadcastGamesList()
	m.record("session-created", id, connID)

	m.log.Infof("connection %s created game %s (%q)", connID, id, name)
	return nil
}

// JoinGame seats a connection as black. Joining an unknown or full session is
// a silent no-op: registry state is untouched and nothing is delivered. Two
// connections racing for the last seat serialize on the session lock, so
// exactly one wins.
func (m *Manager) JoinGame(connID, id string) error {
	if current, ok := m.sessionFor(connID); ok {
		m.log.Warnf("connection %s attempted join-game while in session %s", connID, current)
		return ErrSessionConflict
	}

	s, ok := m.registry.Get(id)
	if !ok {
		m.log.Debugf("join-game for unknown session %s from connection %s", id, connID)
		return ErrSessionNotFound
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		return ErrSessionNotFound
	}
	color, err := s.AddPlayerUnsafe(connID)
	if err != nil {
		s.Mu.Unlock()
		m.log.Debugf("join-game on full session %s from connection %s", id, connID)
		return err
	}
	room := s.RoomViewUnsafe()
	chat := s.ChatSnapshotUnsafe()
	s.Mu.Unlock()

	m.associate(connID, id)
	m.bus.Join(id, connID)

	m.bus.Deliver(connID, EventColor, color)
	m.bus.ToRoom(id, EventGameUpdated, room)
	m.bus.ToRoom(id, EventChatUpdated, chat)
	m.BroadcastGamesList()
	m.record("player-joined", id, connID)

	m.log.Infof("connection %s joined game %s as %s", connID, id, color)
	return nil
}

// MovePiece stores the opaque move payload verbatim and flips the turn. The
// payload is not validated; this hub does not know the rules of chess. The
// updated room view goes to the room only, since the player count cannot have
// changed.
func (m *Manager) MovePiece(connID string, move json.RawMessage) error {
	s, id, err := m.resolve(connID, "move-piece")
	if err != nil {
		return err
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		return ErrSessionNotFound
	}
	s.ApplyMoveUnsafe(move)
	room := s.RoomViewUnsafe()
	s.Mu.Unlock()

	m.bus.ToRoom(id, EventGameUpdated, room)
	m.record("move", id, connID)
	return nil
}

// ToggleResetGame flips the reset toggle exactly once, returns the turn to
// white, and clears any pending rematch request, with a single broadcast.
func (m *Manager) ToggleResetGame(connID string) error {
	s, id, err := m.resolve(connID, "reset-game")
	if err != nil {
		return err
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		return ErrSessionNotFound
	}
	s.ToggleResetUnsafe()
	room := s.RoomViewUnsafe()
	s.Mu.Unlock()

	m.bus.ToRoom(id, EventGameUpdated, room)
	m.record("reset-toggled", id, connID)
	return nil
}

// TogglePlayAgain flips the rematch toggle. Both the play-again and
// cancel-play-again wire events land here; they were always the same flip.
func (m *Manager) TogglePlayAgain(connID string) error {
	s, id, err := m.resolve(connID, "play-again")
	if err != nil {
		return err
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		return ErrSessionNotFound
	}
	s.TogglePlayAgainUnsafe()
	room := s.RoomViewUnsafe()
	s.Mu.Unlock()

	m.bus.ToRoom(id, EventGameUpdated, room)
	m.record("play-again-toggled", id, connID)
	return nil
}

// SendChatMessage appends a chat entry authored by the sender's color and
// pushes the updated log to the room. A message from a connection that is not
// seated is logged and dropped.
func (m *Manager) SendChatMessage(connID, text string) error {
	s, id, err := m.resolve(connID, "send-message")
	if err != nil {
		return err
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		return ErrSessionNotFound
	}
	color, seated := s.PlayerColorUnsafe(connID)
	if !seated {
		s.Mu.Unlock()
		m.log.Warnf("chat from connection %s not seated in session %s", connID, id)
		return ErrPlayerNotInSession
	}
	s.AppendChatUnsafe(string(color), text)
	chat := s.ChatSnapshotUnsafe()
	s.Mu.Unlock()

	m.bus.ToRoom(id, EventChatUpdated, chat)
	m.record("chat", id, connID)
	return nil
}

// RelaySignal forwards an opaque call-signal payload to the sender's room,
// excluding the sender. The payload is untouched.
func (m *Manager) RelaySignal(connID, outEvent string, signal json.RawMessage) error {
	_, id, err := m.resolve(connID, outEvent)
	if err != nil {
		return err
	}
	m.bus.ToRoomExcept(id, connID, outEvent, signal)
	return nil
}

// EndSession removes the session a connection is seated in and notifies every
// other participant with a terminal end-game event; the departing connection
// hears nothing. Idempotent: a second call for the same connection finds no
// session and is a safe no-op. The lobby list broadcast is the caller's
// responsibility.
func (m *Manager) EndSession(connID string) bool {
	s := m.lookup(connID)
	if s == nil {
		m.dissociate(connID)
		return false
	}

	s.Mu.Lock()
	if s.Ended {
		s.Mu.Unlock()
		m.dissociate(connID)
		return false
	}
	s.Ended = true
	id := s.ID
	peers := s.PeersUnsafe(connID)
	participants := s.ParticipantsUnsafe()
	s.Mu.Unlock()

	m.registry.Remove(id)

	// The room is dead: every participant leaves it and loses its
	// association, not just the one who triggered the teardown.
	for _, p := range participants {
		m.dissociate(p)
		m.bus.Leave(id, p)
	}

	for _, peer := range peers {
		m.bus.Deliver(peer, EventEndGame, nil)
	}
	m.record("session-ended", id, connID)

	m.log.Infof("connection %s ended game %s", connID, id)
	return true
}

// resolve maps a connection to its live session via the side table, falling
// back on the registry scan. Misses are logged and surfaced as errors for the
// caller to drop.
func (m *Manager) resolve(connID, op string) (*Session, string, error) {
	s := m.lookup(connID)
	if s == nil {
		m.log.Warnf("%s from connection %s with no session", op, connID)
		return nil, "", ErrPlayerNotInSession
	}
	return s, s.ID, nil
}

// lookup returns the session for a connection, or nil. Prefers the side
// table; the defensive registry scan covers a stale or missing association.
func (m *Manager) lookup(connID string) *Session {
	m.mu.RLock()
	id, ok := m.joined[connID]
	m.mu.RUnlock()
	if ok {
		if s, found := m.registry.Get(id); found {
			return s
		}
	}
	if s, found := m.registry.FindByConnection(connID); found {
		return s
	}
	return nil
}

// sessionFor reads the side table only; used to refuse create/join from a
// connection that is already seated.
func (m *Manager) sessionFor(connID string) (string, bool) {
	m.mu.RLock()
	id, ok := m.joined[connID]
	m.mu.RUnlock()
	return id, ok
}

func (m *Manager) associate(connID, sessionID string) {
	m.mu.Lock()
	m.joined[connID] = sessionID
	m.mu.Unlock()
}

func (m *Manager) dissociate(connID string) {
	m.mu.Lock()
	delete(m.joined, connID)
	m.mu.Unlock()
}

func (m *Manager) record(event, sessionID, connID string) {
	if m.history == nil {
		return
	}
	m.history.Record(event, sessionID, connID)
}
