// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gambit-live/gambit/internal/hub"
	"github.com/gambit-live/gambit/internal/middleware"
	"github.com/gambit-live/gambit/internal/session"
)

// WSHandler upgrades the connection, registers it with the hub, pushes the
// initial lobby snapshot, and runs the read/write pumps until the client goes
// away. Teardown always funnels through EndSession so a drop mid-game notifies
// the surviving player.
func WSHandler(logger *logrus.Logger, h *hub.Hub, m *session.Manager, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		conn := h.Add()
		connID := conn.ID()
		middleware.LogWebSocketConnect(logger, connID, r.RemoteAddr)

		// Every client starts with a lobby snapshot.
		m.SendGamesList(connID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go writePump(ctx, c, conn, logger)

		readErr := readPump(ctx, c, connID, m, logger)

		// Cleanup mirrors the leave-game path: tear down any session the
		// connection was in, then refresh the lobby for everyone else.
		m.EndSession(connID)
		m.BroadcastGamesList()
		h.Remove(connID)
		middleware.LogWebSocketDisconnect(logger, connID, r.RemoteAddr, readErr)
	}
}

// readPump decodes inbound envelopes and dispatches them until the connection
// closes or errors. Malformed frames are answered with an error event, never
// a teardown.
func readPump(ctx context.Context, c *websocket.Conn, connID string, m *session.Manager, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("connection %s sent non-text message type %d, ignoring", connID, typ)
			continue
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("connection %s sent invalid json: %v", connID, err)
			continue
		}

		dispatch(env, connID, m, logger)
	}
}

// dispatch maps one inbound event to its lifecycle operation. Operation
// errors are policy no-ops already logged by the manager; nothing here
// escalates.
func dispatch(env envelope, connID string, m *session.Manager, logger *logrus.Logger) {
	switch env.Event {
	case evCreateGame:
		var p createGamePayload
		if err := json.Unmarshal(env.Body, &p); err != nil {
			logger.Warnf("connection %s sent malformed %s payload: %v", connID, env.Event, err)
			return
		}
		_ = m.CreateGame(connID, p.Name, p.ID)

	case evJoinGame:
		var p joinGamePayload
		if err := json.Unmarshal(env.Body, &p); err != nil {
			logger.Warnf("connection %s sent malformed %s payload: %v", connID, env.Event, err)
			return
		}
		_ = m.JoinGame(connID, p.ID)

	case evMovePiece:
		// The move is opaque; it is stored and relayed verbatim.
		_ = m.MovePiece(connID, env.Body)

	case evResetGame:
		_ = m.ToggleResetGame(connID)

	case evPlayAgain, evCancelPlayAgain:
		// Two wire names, one flip.
		_ = m.TogglePlayAgain(connID)

	case evSendMessage:
		var p chatPayload
		if err := json.Unmarshal(env.Body, &p); err != nil {
			logger.Warnf("connection %s sent malformed %s payload: %v", connID, env.Event, err)
			return
		}
		if p.Text != "" {
			_ = m.SendChatMessage(connID, p.Text)
		}

	case evLeaveGame:
		m.EndSession(connID)
		m.BroadcastGamesList()

	case evMakeCall:
		_ = m.RelaySignal(connID, evMakingCall, nil)
	case evCallUser:
		_ = m.RelaySignal(connID, evUserCalled, env.Body)
	case evAcceptCall:
		_ = m.RelaySignal(connID, evCallAccepted, env.Body)
	case evCancelCall:
		_ = m.RelaySignal(connID, evCallCancelled, nil)
	case evEndCall:
		_ = m.RelaySignal(connID, evCallEnded, nil)

	default:
		logger.Warnf("connection %s sent unknown event %q", connID, env.Event)
	}
}

// writePump drains the hub's frame stream onto the wire and pings
// periodically, exiting when the stream closes or a write fails.
func writePump(ctx context.Context, c *websocket.Conn, conn *hub.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-conn.Out():
			if !ok {
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				logger.Warnf("failed to marshal outgoing frame for connection %s: %v", conn.ID(), err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to connection %s: %v", conn.ID(), err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping to connection %s failed, assuming disconnect: %v", conn.ID(), err)
				return
			}
		}
	}
}
