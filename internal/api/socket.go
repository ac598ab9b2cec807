package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"narrascroll/pkg/page"
)

// Inbound socket message types.
const (
	SocketAnchors    = "anchors"
	SocketVisibility = "visibility"
	SocketGeometry   = "geometry"
	SocketControl    = "control"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
	socketMaxMessage = 64 * 1024
	socketQueueSize  = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SocketMessage is a message sent by a page client.
type SocketMessage struct {
	Type     string   `json:"type"`
	Segments []string `json:"segments,omitempty"`
	Action   string   `json:"action,omitempty"`
	VisibilityRequest
}

// socketClient is one attached browser. Only writeLoop writes to conn.
type socketClient struct {
	conn *websocket.Conn
	page string
	out  chan page.Message
	done chan struct{}
	once sync.Once
}

func newSocketClient(conn *websocket.Conn, pageID string) *socketClient {
	return &socketClient{
		conn: conn,
		page: pageID,
		out:  make(chan page.Message, socketQueueSize),
		done: make(chan struct{}),
	}
}

// send queues m without blocking. A client that cannot keep up loses messages;
// the next state message supersedes them anyway.
func (c *socketClient) send(m page.Message) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.out <- m:
	default:
		slog.Warn("Page socket: client queue full, dropping message", "page", c.page, "type", m.Type)
	}
}

func (c *socketClient) stop() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *socketClient) writeLoop() {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case m := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := c.conn.WriteJSON(m); err != nil {
				slog.Debug("Page socket: write failed", "page", c.page, "error", err)
				c.stop()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}

// HandleSocket handles GET /api/pages/{id}/ws
//
// The socket is the page's viewport: outbound it carries state, scroll and lock
// messages; inbound it carries anchors, visibility, geometry and control messages.
func (h *PageHandler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.Warn("Page socket: upgrade failed", "page", p.ID, "error", err)
		return
	}

	c := newSocketClient(conn, p.ID)
	go c.writeLoop()
	detach := p.Attach(c.send)
	slog.Info("Page socket: client attached", "page", p.ID, "clients", p.Surface().Clients())

	h.readLoop(c, p)

	detach()
	c.stop()
	slog.Info("Page socket: client detached", "page", p.ID)
}

func (h *PageHandler) readLoop(c *socketClient, p *page.Page) {
	c.conn.SetReadLimit(socketMaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Page socket: read failed", "page", p.ID, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(socketPongWait))

		if _, err := h.pages.Get(p.ID); err != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "page unmounted"),
				time.Now().Add(socketWriteWait))
			return
		}

		var msg SocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Page socket: malformed message", "page", p.ID, "error", err)
			continue
		}
		handleSocketMessage(p, &msg)
	}
}

func handleSocketMessage(p *page.Page, msg *SocketMessage) {
	switch msg.Type {
	case SocketAnchors:
		p.Surface().SetAnchors(msg.Segments)
	case SocketVisibility, SocketGeometry:
		if err := msg.apply(p.Observer()); err != nil {
			slog.Warn("Page socket: invalid visibility message", "page", p.ID, "error", err)
		}
	case SocketControl:
		if err := p.Control(msg.Action); err != nil {
			slog.Warn("Page socket: control rejected", "page", p.ID, "action", msg.Action, "error", err)
		}
	default:
		slog.Warn("Page socket: unknown message type", "page", p.ID, "type", msg.Type)
	}
}
