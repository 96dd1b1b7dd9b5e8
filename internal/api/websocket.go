package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"menuopt/internal/export"
	"menuopt/internal/logger"
	"menuopt/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// Frame types exchanged over /ws
const (
	FrameAsk    = "ask"
	FrameExport = "export"
	FrameReply  = "reply"
	FrameError  = "error"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientFrame is a message sent by the chat client
type ClientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerFrame is a message sent back to the chat client
type ServerFrame struct {
	Type       string `json:"type"`
	Session    string `json:"session,omitempty"`
	Reply      string `json:"reply,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WSConnection maintains one chat conversation over a websocket
type WSConnection struct {
	conn    *websocket.Conn
	send    chan []byte
	mu      sync.Mutex
	closed  bool
	session *session.Session
	api     *MenuAPI
	log     *logger.Logger
}

// handleWebSocket upgrades the request and starts a fresh conversation
func (m *MenuAPI) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		m.log.Warn("failed to upgrade connection", "error", err)
		return
	}

	sess := session.New()
	wsConn := &WSConnection{
		conn:    conn,
		send:    make(chan []byte, 256),
		session: sess,
		api:     m,
		log:     m.log.WithContext("session_id", sess.ID()),
	}
	m.monitor.Increment("chat_sessions_opened")
	wsConn.log.Debug("chat session opened")

	go wsConn.writePump()
	go wsConn.readPump()
}

// readPump pumps messages from the websocket connection to the session
func (c *WSConnection) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
		c.log.Debug("chat session closed", "messages", c.session.Len())
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps frames from the send queue to the websocket connection
func (c *WSConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage answers one client frame. Frames are handled in arrival
// order so the transcript matches what the client saw.
func (c *WSConnection) handleMessage(message []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.sendFrame(ServerFrame{Type: FrameError, Error: "invalid frame: " + err.Error()})
		return
	}

	switch frame.Type {
	case FrameAsk:
		if strings.TrimSpace(frame.Text) == "" {
			c.sendFrame(ServerFrame{Type: FrameError, Error: "text is required"})
			return
		}
		reply, rule := c.session.Ask(c.api.Engine, frame.Text)
		c.api.metrics.RecordChatQuery(rule)
		c.api.monitor.Increment("chat_queries")
		c.sendFrame(ServerFrame{Type: FrameReply, Session: c.session.ID(), Reply: reply, Rule: rule})
	case FrameExport:
		var buf bytes.Buffer
		if err := export.WriteTranscript(&buf, c.session.Messages()); err != nil {
			c.log.Error("transcript export failed", "error", err)
			c.sendFrame(ServerFrame{Type: FrameError, Error: err.Error()})
			return
		}
		c.api.monitor.Increment("transcript_exports")
		c.sendFrame(ServerFrame{Type: FrameExport, Session: c.session.ID(), Transcript: buf.String()})
	default:
		c.sendFrame(ServerFrame{Type: FrameError, Error: "unknown frame type: " + frame.Type})
	}
}

// sendFrame queues a frame for the write pump
func (c *WSConnection) sendFrame(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("error marshaling frame", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("websocket buffer full, dropping frame", "type", frame.Type)
	}
}

func (c *WSConnection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
