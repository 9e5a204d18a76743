package player

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Subscriber is a client watching a session's state.
// Writes are serialized since a websocket allows a single concurrent writer.
type Subscriber struct {
	ID   string
	Conn Connection

	mu sync.Mutex
}

// NewSubscriber wraps a connection.
func NewSubscriber(id string, conn Connection) *Subscriber {
	return &Subscriber{ID: id, Conn: conn}
}

// Send writes one text frame.
func (s *Subscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// Ping writes a ping control frame.
func (s *Subscriber) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying connection.
func (s *Subscriber) Close() error {
	return s.Conn.Close()
}
