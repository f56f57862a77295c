package client

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// Link holds one seat across sockets. Reconnect dials a fresh Client when
// the current socket has dropped and reclaims the seat on it.
type Link struct {
	serverURL   string
	logger      *log.Logger
	dialTimeout time.Duration

	mu      sync.Mutex
	current *Client
}

// Dial connects a Link to the server
func Dial(ctx context.Context, serverURL string, logger *log.Logger) (*Link, error) {
	l := &Link{serverURL: serverURL, logger: logger, dialTimeout: 10 * time.Second}
	c := NewClient(serverURL, logger)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	l.current = c
	return l, nil
}

// Client returns the client for the current socket
func (l *Link) Client() *Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Send queues a message on the current socket
func (l *Link) Send(msg protocol.ClientMessage) error {
	return l.Client().Send(msg)
}

// Messages returns the current socket's message channel
func (l *Link) Messages() <-chan protocol.ServerMessage {
	return l.Client().Messages()
}

// Reconnect reclaims the held seat, dialing again first if needed
func (l *Link) Reconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.current
	seat := old.Session()
	if seat.PlayerID == "" {
		return ErrNoSession
	}
	if old.IsConnected() {
		return old.Reconnect()
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.dialTimeout)
	defer cancel()
	c := NewClient(l.serverURL, l.logger)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	_ = old.Close()
	c.Resume(seat)
	l.current = c
	l.logger.Info("Redialed server", "room", seat.RoomCode, "player", seat.PlayerID)
	return c.Reconnect()
}

// Close closes the current socket
func (l *Link) Close() error {
	return l.Client().Close()
}
