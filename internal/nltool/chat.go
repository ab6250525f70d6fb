package nltool

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatMessage is the outgoing WebSocket message format.
type chatMessage struct {
	Type      string    `json:"type"` // "response" or "error"
	SessionID string    `json:"session_id"`
	Response  *Response `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// handleWebSocket serves a conversational session: each text message is a
// QueryRequest answered with a Response. A session id sent once sticks to
// the connection.
func (t *Tool) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.WithError(err).Warn("nltool: websocket upgrade")
		return
	}
	defer conn.Close()

	var sessionID, userID string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.WithError(err).Warn("nltool: websocket read")
			}
			return
		}

		var req QueryRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.send(conn, chatMessage{Type: "error", SessionID: sessionID, Error: "invalid message format"})
			continue
		}
		if req.SessionID != "" {
			sessionID = req.SessionID
		}
		if req.UserID != "" {
			userID = req.UserID
		}
		if req.Query == "" {
			t.send(conn, chatMessage{Type: "error", SessionID: sessionID, Error: "query is required"})
			continue
		}

		resp := t.ProcessNaturalLanguageQuery(r.Context(), req.Query, sessionID, userID)
		t.send(conn, chatMessage{Type: "response", SessionID: session(sessionID, userID).SessionID, Response: &resp})
	}
}

func (t *Tool) send(conn *websocket.Conn, m chatMessage) {
	if err := conn.WriteJSON(m); err != nil {
		t.log.WithError(err).Warn("nltool: websocket write")
	}
}
