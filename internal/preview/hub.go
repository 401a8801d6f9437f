package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message types sent to clients.
const (
	MessageContent = "content"
	MessageZoom    = "zoom"
	MessageError   = "error"
)

// Commands accepted from clients.
const (
	CommandZoomIn    = "zoom-in"
	CommandZoomOut   = "zoom-out"
	CommandZoomReset = "zoom-reset"
)

const (
	sendBuffer     = 16
	broadcastQueue = 64
	writeWait      = 10 * time.Second
	maxCommandSize = 512
)

// Message is the JSON payload pushed to every connected client.
type Message struct {
	Type    string  `json:"type"`
	HTML    string  `json:"html,omitempty"`
	BaseURI string  `json:"baseURI,omitempty"`
	Zoom    float64 `json:"zoom"`
	Error   string  `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans preview updates out to websocket clients. New clients receive the
// latest content immediately.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	current Message

	zoom     *Zoom
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHub creates a Hub starting at the given zoom level. Run must be started
// before clients connect.
func NewHub(zoom float64, logger zerolog.Logger) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
	h.zoom = NewZoom(zoom, h.zoomChanged)
	h.current = Message{Type: MessageContent, Zoom: h.zoom.Level()}
	return h
}

// Zoom exposes the hub's zoom state.
func (h *Hub) Zoom() *Zoom {
	return h.zoom
}

// Run serves register, unregister and broadcast requests until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	defer func() {
		h.stopOnce.Do(func() { close(h.done) })
		for c := range clients {
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			if data, err := json.Marshal(h.Current()); err == nil {
				c.send <- data
			}

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}

		case data := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- data:
				default:
					h.logger.Debug().Msg("dropping slow preview client")
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Current returns the latest message.
func (h *Hub) Current() Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Publish replaces the displayed content and notifies every client.
func (h *Hub) Publish(html, baseURI string) {
	h.mu.Lock()
	h.current = Message{Type: MessageContent, HTML: html, BaseURI: baseURI, Zoom: h.zoom.Level()}
	msg := h.current
	h.mu.Unlock()
	h.send(msg)
}

// PublishError reports a render failure while keeping the last good content.
func (h *Hub) PublishError(err error) {
	h.send(Message{Type: MessageError, Error: err.Error(), Zoom: h.zoom.Level()})
}

func (h *Hub) zoomChanged(level float64) {
	h.mu.Lock()
	h.current.Zoom = level
	h.mu.Unlock()
	h.logger.Debug().Float64("zoom", level).Msg("zoom changed")
	h.send(Message{Type: MessageZoom, Zoom: level})
}

func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn().Err(err).Msg("encoding preview message")
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// handleCommand applies a client command. Unknown commands are ignored.
func (h *Hub) handleCommand(cmd string) {
	switch cmd {
	case CommandZoomIn:
		h.zoom.ZoomIn()
	case CommandZoomOut:
		h.zoom.ZoomOut()
	case CommandZoomReset:
		h.zoom.Reset()
	default:
		h.logger.Debug().Str("command", cmd).Msg("ignoring unknown preview command")
	}
}

// ServeHTTP upgrades the request to a websocket and attaches it to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket upgrade")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleCommand(string(data))
	}
}
