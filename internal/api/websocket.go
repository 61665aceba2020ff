package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cerebroscan/backend/internal/upload"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// WebSocket message types for the pipeline stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "pipeline"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const wsWriteTimeout = 5 * time.Second

// WSMessage is the envelope for every frame on the stream.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is sent when a client message cannot be handled.
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams pipeline events to connected clients
type WebSocketHandler struct {
	pipeline Pipeline
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new pipeline stream handler
func NewWebSocketHandler(pipeline Pipeline) *WebSocketHandler {
	return &WebSocketHandler{
		pipeline: pipeline,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// wsConn serializes writes from the event pump and the read loop.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (w *wsConn) send(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.ws.WriteJSON(v)
}

// HandlePipelineStream upgrades the connection and forwards every pipeline event
// until the client disconnects.
func (wsh *WebSocketHandler) HandlePipelineStream(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &wsConn{ws: ws}
	events, unsubscribe := wsh.pipeline.Subscribe()
	defer unsubscribe()

	log.Debug("[WebSocket] Client connected for pipeline events")

	// Send welcome message with the phase the client joined in
	conn.send(WSMessage{
		Type:      MsgTypeConnected,
		Payload:   mustJSON(map[string]interface{}{"phase": wsh.pipeline.Phase()}),
		Timestamp: time.Now().UnixMilli(),
	})

	done := make(chan struct{})
	go wsh.readLoop(conn, done)

	for {
		select {
		case <-done:
			log.Debug("[WebSocket] Client disconnected")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := conn.send(eventMessage(ev)); err != nil {
				log.Debugf("[WebSocket] Write failed: %v", err)
				return nil
			}
		}
	}
}

// readLoop answers pings and closes done when the client goes away.
func (wsh *WebSocketHandler) readLoop(conn *wsConn, done chan struct{}) {
	defer close(done)
	for {
		var msg WSMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[WebSocket] Connection error: %v", err)
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		default:
			conn.send(WSErrorResponse{
				Type:    MsgTypeError,
				Message: "Unknown message type: " + msg.Type,
				Code:    "INVALID_TYPE",
			})
		}
	}
}

func eventMessage(ev upload.Event) WSMessage {
	return WSMessage{
		Type:      MsgTypeEvent,
		Payload:   mustJSON(ev),
		Timestamp: ev.Time.UnixMilli(),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
