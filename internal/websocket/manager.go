// Package websocket pushes preview notices to the host page: the document
// title, clearing the feedback panel, and frame reloads.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/conneroisu/mobilcoder/internal/errors"
	"github.com/conneroisu/mobilcoder/internal/logging"
	"github.com/conneroisu/mobilcoder/internal/validation"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// IsAllowedOrigin implements OriginValidator.
func (o OriginList) IsAllowedOrigin(origin string) bool {
	return validation.ValidateOrigin(origin, o) == nil
}

// Manager tracks the connected host pages and broadcasts notices to them.
// It implements the preview host.
type Manager struct {
	clients      map[string]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	originValidator OriginValidator
	logger          logging.Logger

	// last notices, replayed to pages that connect later
	stateMutex   sync.Mutex
	lastTitle    string
	lastRevision uint64

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewManager creates a manager and starts its hub.
func NewManager(originValidator OriginValidator, logger logging.Logger) *Manager {
	if originValidator == nil {
		originValidator = OriginList(nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		clients:         make(map[string]*Client),
		broadcast:       make(chan []byte, 256),
		register:        make(chan *Client, 32),
		unregister:      make(chan *Client, 32),
		originValidator: originValidator,
		logger:          logger.WithComponent("websocket"),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
	go m.runHub()
	return m
}

// HandleWebSocket upgrades a host page connection.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if m.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if !m.originValidator.IsAllowedOrigin(origin) {
		m.logger.Warn(r.Context(), errors.ErrInvalidOrigin(origin), "WebSocket connection rejected",
			"origin", origin,
			"remote", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// the origin was checked above
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		m.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, 64),
		lastActivity: time.Now(),
		limiter:      rate.NewLimiter(rate.Limit(10), 20),
	}

	for _, msg := range m.replay() {
		client.send <- msg
	}

	select {
	case m.register <- client:
	case <-m.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	}

	go m.writeToClient(client)
	m.readFromClient(client)
}

func (m *Manager) replay() [][]byte {
	m.stateMutex.Lock()
	title, revision := m.lastTitle, m.lastRevision
	m.stateMutex.Unlock()

	var out [][]byte
	if title != "" {
		out = append(out, encode(UpdateMessage{Type: MessageTitle, Title: title}))
	}
	if revision > 0 {
		out = append(out, encode(UpdateMessage{Type: MessageReload, Revision: revision}))
	}
	return out
}

func encode(msg UpdateMessage) []byte {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, _ := json.Marshal(msg)
	return data
}

// runHub owns the clients map and every send channel.
func (m *Manager) runHub() {
	defer close(m.done)
	for {
		select {
		case client := <-m.register:
			m.clientsMutex.Lock()
			m.clients[client.id] = client
			count := len(m.clients)
			m.clientsMutex.Unlock()
			m.logger.Debug(m.ctx, "WebSocket client connected", "client", client.id, "clients", count)

		case client := <-m.unregister:
			m.remove(client)

		case message := <-m.broadcast:
			m.clientsMutex.RLock()
			var slow []*Client
			for _, client := range m.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			m.clientsMutex.RUnlock()
			for _, client := range slow {
				m.remove(client)
			}

		case <-m.ctx.Done():
			m.clientsMutex.Lock()
			for id, client := range m.clients {
				close(client.send)
				delete(m.clients, id)
			}
			m.clientsMutex.Unlock()
			return
		}
	}
}

func (m *Manager) remove(client *Client) {
	m.clientsMutex.Lock()
	_, ok := m.clients[client.id]
	if ok {
		delete(m.clients, client.id)
		close(client.send)
	}
	count := len(m.clients)
	m.clientsMutex.Unlock()

	if ok {
		m.logger.Debug(m.ctx, "WebSocket client disconnected", "client", client.id, "clients", count)
	}
}

// readFromClient drains the connection until it closes. Pages only send
// keep-alives; a page that floods is dropped.
func (m *Manager) readFromClient(client *Client) {
	defer func() {
		select {
		case m.unregister <- client:
		case <-m.ctx.Done():
		}
		_ = client.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		ctx, cancel := context.WithTimeout(m.ctx, pongWait)
		_, _, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && m.ctx.Err() == nil {
				m.logger.Debug(m.ctx, "WebSocket read ended", "client", client.id, "error", err.Error())
			}
			return
		}
		client.lastActivity = time.Now()
		if !client.limiter.Allow() {
			m.logger.Warn(m.ctx, nil, "WebSocket client exceeded message rate", "client", client.id)
			return
		}
	}
}

func (m *Manager) writeToClient(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				_ = client.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// BroadcastMessage sends a notice to every connected page.
func (m *Manager) BroadcastMessage(message UpdateMessage) {
	data := encode(message)
	select {
	case m.broadcast <- data:
	case <-m.ctx.Done():
	default:
		m.logger.Warn(m.ctx, nil, "Broadcast channel full, dropping message", "type", message.Type)
	}
}

// SetTitle shows the preview document's title on the host page.
func (m *Manager) SetTitle(title string) {
	m.stateMutex.Lock()
	m.lastTitle = title
	m.stateMutex.Unlock()
	m.BroadcastMessage(UpdateMessage{Type: MessageTitle, Title: title})
}

// ClearFeedback empties the host feedback panel.
func (m *Manager) ClearFeedback() {
	m.BroadcastMessage(UpdateMessage{Type: MessageConsoleClear})
}

// Reload asks the page to load the given frame revision.
func (m *Manager) Reload(revision uint64) {
	m.stateMutex.Lock()
	m.lastRevision = revision
	m.stateMutex.Unlock()
	m.BroadcastMessage(UpdateMessage{Type: MessageReload, Revision: revision})
}

// GetConnectedClients returns the number of connected clients
func (m *Manager) GetConnectedClients() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown closes every connection and stops the hub.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(m.cancel)
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
