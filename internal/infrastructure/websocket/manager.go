package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"lokapasar/pkg/logger"
)

// Client is one connected UI session. Teardown is run exactly once when the
// client unregisters, whatever the reason; the handler uses it to release
// the client's relay session.
type Client struct {
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte
	OnMessage func([]byte)
	Teardown  func()

	teardownOnce sync.Once
}

func (c *Client) runTeardown() {
	c.teardownOnce.Do(func() {
		if c.Teardown != nil {
			c.Teardown()
		}
	})
}

// Manager tracks active WebSocket connections, one per user.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if prev, ok := m.clients[client.UserID]; ok {
					close(prev.Send)
					prev.runTeardown()
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("WebSocket: client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				client.runTeardown()
				logger.Info("WebSocket: client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser queues a frame for one user, dropping it if the client's buffer
// is full.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- message:
	default:
		logger.Warn("WebSocket: send buffer full for %s, dropping frame", userID)
	}
}

// ReadPump reads frames from the connection until it drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for %s: %v", c.UserID, err)
			}
			break
		}

		if c.OnMessage != nil {
			c.OnMessage(message)
		}
	}
}

// WritePump drains the Send channel into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
			return
		}
	}
}
