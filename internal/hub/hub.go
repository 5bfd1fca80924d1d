// internal/hub/hub.go

// Package hub is the transport-side fan-out layer: it tracks live connections
// and room membership, and turns the session core's deliver/broadcast calls
// into frames on per-connection outgoing channels. The websocket handler
// drains those channels; the hub itself never does network I/O.
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Frame is one outbound named event with its payload, the unit the write pump
// marshals onto the wire.
type Frame struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Conn is one client connection known to the hub. Writes are non-blocking
// sends onto Out; a backed-up consumer drops frames rather than stalling a
// lifecycle operation.
type Conn struct {
	id  string
	out chan Frame

	mu     sync.Mutex
	closed bool
}

// ID returns the transport-assigned public identifier for this connection.
func (c *Conn) ID() string { return c.id }

// Out is the frame stream drained by the connection's write pump. It is
// closed when the connection is removed from the hub.
func (c *Conn) Out() <-chan Frame { return c.out }

func (c *Conn) send(log *logrus.Logger, f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- f:
	default:
		log.Warnf("connection %s outgoing buffer full, dropped %q frame", c.id, f.Event)
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// Hub owns the connection set and room membership. It implements the
// Broadcaster contract the session manager emits through.
type Hub struct {
	log *logrus.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
	rooms map[string]map[string]*Conn
}

// New initializes an empty hub.
func New(log *logrus.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[string]*Conn),
		rooms: make(map[string]map[string]*Conn),
	}
}

// Add registers a new connection under a fresh public id.
func (h *Hub) Add() *Conn {
	c := &Conn{
		id:  uuid.NewString(),
		out: make(chan Frame, 32),
	}
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	return c
}

// Remove forgets a connection, evicts it from every room, and closes its
// frame stream. Safe to call twice.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	delete(h.conns, connID)
	for room, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Join adds a connection to a room, creating the room on first use.
func (h *Hub) Join(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		h.log.Warnf("join of unknown connection %s to room %s", connID, room)
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Conn)
		h.rooms[room] = members
	}
	members[connID] = c
}

// Leave removes a connection from a room, dropping the room once empty.
func (h *Hub) Leave(room, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Deliver sends one event to one connection.
func (h *Hub) Deliver(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.send(h.log, Frame{Event: event, Body: payload})
}

// ToRoom sends one event to every member of a room.
func (h *Hub) ToRoom(room, event string, payload any) {
	h.ToRoomExcept(room, "", event, payload)
}

// ToRoomExcept sends one event to every member of a room except one
// connection. Membership is snapshotted under the lock; sends happen outside
// it.
func (h *Hub) ToRoomExcept(room, skipConnID, event string, payload any) {
	h.mu.RLock()
	members := make([]*Conn, 0, len(h.rooms[room]))
	for id, c := range h.rooms[room] {
		if id == skipConnID {
			continue
		}
		members = append(members, c)
	}
	h.mu.RUnlock()

	f := Frame{Event: event, Body: payload}
	for _, c := range members {
		c.send(h.log, f)
	}
}

// ToAll sends one event to every connection.
func (h *Hub) ToAll(event string, payload any) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	f := Frame{Event: event, Body: payload}
	for _, c := range conns {
		c.send(h.log, f)
	}
}
