package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string             `json:"type"` // "respond"
	Request schema.UserRequest `json:"request"`
}

// wsMessage is the outgoing WebSocket message format.
type wsMessage struct {
	Type       string           `json:"type"` // "checkpoint", "result" or "error"
	SessionID  string           `json:"session_id,omitempty"`
	Checkpoint *pipeline.Event  `json:"checkpoint,omitempty"`
	Result     *pipeline.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// handleWS mirrors the SSE stream over a websocket, one turn per
// "respond" message, checkpoints interleaved as they happen.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWS(conn, wsMessage{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.Type != "respond" {
			s.sendWS(conn, wsMessage{Type: "error", Error: "unknown message type: " + req.Type})
			continue
		}

		s.runTurn(conn, r, req.Request)
	}
}

func (s *Server) runTurn(conn *websocket.Conn, r *http.Request, req schema.UserRequest) {
	res, err := s.engine.Respond(r.Context(), &req, func(ev pipeline.Event) {
		s.sendWS(conn, wsMessage{Type: "checkpoint", SessionID: req.SessionID, Checkpoint: &ev})
	})
	if err != nil {
		s.sendWS(conn, wsMessage{Type: "error", SessionID: req.SessionID, Error: err.Error()})
		return
	}
	s.sendWS(conn, wsMessage{Type: "result", SessionID: res.SessionID, Result: res})
}

func (s *Server) sendWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn("websocket write", zap.Error(err))
	}
}
