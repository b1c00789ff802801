package websocket

import (
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"
)

// Message types sent to the host page.
const (
	MessageTitle        = "title"
	MessageConsoleClear = "console_clear"
	MessageReload       = "reload"
)

// Client represents a WebSocket client connection
type Client struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
	limiter      *rate.Limiter
}

// ID returns the client's connection id.
func (c *Client) ID() string {
	return c.id
}

// UpdateMessage is one notice for the host page
type UpdateMessage struct {
	Type      string    `json:"type"`
	Title     string    `json:"title,omitempty"`
	Revision  uint64    `json:"revision,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OriginValidator interface for WebSocket origin validation
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// OriginList accepts the origins whose host, or full origin, is listed.
type OriginList []string
