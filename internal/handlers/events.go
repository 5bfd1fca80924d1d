// internal/handlers/events.go
package handlers

import "encoding/json"

// Inbound event names, one per client action. Outbound names live with the
// session manager; the call-relay outbound names are here because the mapping
// inbound -> echoed name is this layer's only involvement in calls.
const (
	evCreateGame      = "create-game"
	evJoinGame        = "join-game"
	evMovePiece       = "move-piece"
	evResetGame       = "reset-game"
	evPlayAgain       = "play-again"
	evCancelPlayAgain = "cancel-play-again"
	evLeaveGame       = "leave-game"
	evSendMessage     = "send-message"

	evMakeCall   = "make-call"
	evCallUser   = "call-user"
	evAcceptCall = "accept-call"
	evCancelCall = "cancel-call"
	evEndCall    = "end-call"

	evMakingCall    = "making-call"
	evUserCalled    = "user-called"
	evCallAccepted  = "call-accepted"
	evCallCancelled = "call-cancelled"
	evCallEnded     = "call-ended"
)

// envelope wraps every inbound frame. Body stays raw until the event name
// says how to decode it; for move-piece and call signals it is never decoded
// at all.
type envelope struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

type createGamePayload struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type joinGamePayload struct {
	ID string `json:"id"`
}

type chatPayload struct {
	Text string `json:"text"`
}
