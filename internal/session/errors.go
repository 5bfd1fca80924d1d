// internal/session/errors.go
package session

import "errors"

// Sentinel errors for the session core. Most are swallowed at the operation
// boundary per policy (join on a full or unknown session is a deliberate
// no-op); they exist so tests and callers can distinguish the cases with
// errors.Is.
var (
	// ErrSessionNotFound is returned when an operation references an id that
	// is not in the registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionConflict is returned by Create when the id is already taken.
	ErrSessionConflict = errors.New("session id already in use")

	// ErrSessionFull is returned when a third player attempts to join.
	ErrSessionFull = errors.New("session already has two players")

	// ErrPlayerNotInSession is returned when a connection acts on a session
	// it is not seated in.
	ErrPlayerNotInSession = errors.New("connection is not a session participant")
)
