// Package client is a WebSocket client for the poker room server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrNoSession    = errors.New("no seat to reconnect to")
	ErrBufferFull   = errors.New("send buffer full")
)

// Session identifies a seat so it can be reclaimed after a dropped connection
type Session struct {
	RoomCode     string
	PlayerID     string
	SessionToken string
}

// Client represents a WebSocket client for the poker game
type Client struct {
	serverURL string
	logger    *log.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	session   Session

	send      chan []byte
	receive   chan protocol.ServerMessage
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		logger:    logger.WithPrefix("client"),
		send:      make(chan []byte, 64),
		receive:   make(chan protocol.ServerMessage, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// WebSocketURL turns a server address into the /ws endpoint URL
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump(conn)
	go c.writePump(conn)

	c.logger.Info("Connected to server")
	return nil
}

// Close closes the WebSocket connection
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.connected = false
		c.logger.Info("Disconnected from server")
	})
	return err
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Messages delivers decoded server messages. It is closed when the
// connection ends.
func (c *Client) Messages() <-chan protocol.ServerMessage {
	return c.receive
}

// Session returns the seat held by this client, if any
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Resume sets the seat to reclaim with Reconnect
func (c *Client) Resume(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Send queues a message for the server
func (c *Client) Send(msg protocol.ClientMessage) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return ErrBufferFull
	}
}

// CreateRoom opens a new room with this client as host
func (c *Client) CreateRoom(name string, buyIn int, userID string) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeCreateRoom, PlayerName: name, BuyIn: buyIn, UserID: userID})
}

// JoinRoom takes a seat in an existing room
func (c *Client) JoinRoom(code, name string, buyIn int, userID string) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeJoinRoom, RoomCode: code, PlayerName: name, BuyIn: buyIn, UserID: userID})
}

// Spectate watches a room without a seat
func (c *Client) Spectate(code string) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeSpectateRoom, RoomCode: code})
}

// StartGame deals the first hand (host only)
func (c *Client) StartGame() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeStartGame})
}

// NewHand deals the next hand (host only)
func (c *Client) NewHand() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeNewHand})
}

// Act sends a betting action. amount is only read for raises.
func (c *Client) Act(action string, amount int) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypePlayerAction, Action: action, Amount: amount})
}

// SetOptions updates insurance and run it twice preferences; nil leaves a
// setting unchanged
func (c *Client) SetOptions(autoInsurance, runItTwice *bool) error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeSetOptions, AutoInsurance: autoInsurance, RunItTwiceOptIn: runItTwice})
}

// Leave cashes out and leaves the room
func (c *Client) Leave() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypeLeaveRoom})
}

// Ping checks the server is responsive
func (c *Client) Ping() error {
	return c.Send(protocol.ClientMessage{Type: protocol.TypePing})
}

// Reconnect reclaims the seat recorded in Session
func (c *Client) Reconnect() error {
	s := c.Session()
	if s.PlayerID == "" || s.SessionToken == "" {
		return ErrNoSession
	}
	return c.Send(protocol.ClientMessage{
		Type:         protocol.TypeReconnect,
		RoomCode:     s.RoomCode,
		PlayerID:     s.PlayerID,
		SessionToken: s.SessionToken,
	})
}

// track keeps the session in step with seat changes
func (c *Client) track(msg protocol.ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case protocol.TypeRoomCreated, protocol.TypeRoomJoined:
		c.session = Session{RoomCode: msg.RoomCode, PlayerID: msg.PlayerID, SessionToken: msg.SessionToken}
	case protocol.TypeReconnected:
		c.session.RoomCode = msg.RoomCode
		c.session.PlayerID = msg.PlayerID
	case protocol.TypeLeftRoom, protocol.TypeRoomClosed:
		c.session = Session{}
	}
}

// readPump handles incoming messages from the server
func (c *Client) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		close(c.receive)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		msg, err := protocol.DecodeServer(data)
		if err != nil {
			c.logger.Warn("Dropping malformed message", "error", err)
			continue
		}
		c.logger.Debug("Received message", "type", msg.Type)
		c.track(msg)

		select {
		case c.receive <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
