package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The page is served from the same origin; no cross-origin policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsInbound struct {
	Type string `json:"type"`
	chatRequest
}

// wsConn serializes writes so the read loop and the streaming
// goroutine can both send frames.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWS mirrors /api/chat over one WebSocket connection: a chat
// frame starts a stream, events come back as JSON frames, and a stop
// frame cancels the active stream immediately.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	var (
		mu        sync.Mutex
		active    context.CancelFunc
		sessionID string
		done      sync.WaitGroup
	)
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if active != nil {
			active()
			active = nil
		}
		if sessionID != "" {
			s.unregisterSession(sessionID)
			sessionID = ""
		}
	}
	defer func() {
		stop()
		done.Wait()
	}()

	for {
		var in wsInbound
		if err := raw.ReadJSON(&in); err != nil {
			return
		}

		switch in.Type {
		case "stop":
			stop()

		case "", "chat":
			stop()

			question, history, ok := splitQuestion(in.Messages)
			if !ok || question == "" {
				_ = conn.writeJSON(map[string]string{"type": "error", "message": "a user message is required"})
				continue
			}

			id := strings.TrimSpace(in.SessionID)
			if id == "" {
				id = uuid.NewString()
			}

			ctx, cancel := context.WithCancel(r.Context())
			mu.Lock()
			active = cancel
			sessionID = id
			mu.Unlock()
			s.registerSession(id, cancel)

			done.Add(1)
			go func(req chatRequest) {
				defer done.Done()
				for ev := range s.assistant.StreamChat(ctx, question, streamOptions(req, history)) {
					if err := conn.writeJSON(ev); err != nil {
						cancel()
						return
					}
				}
			}(in.chatRequest)

		default:
			_ = conn.writeJSON(map[string]string{"type": "error", "message": "unknown message type"})
		}
	}
}
