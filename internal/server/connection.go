package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
	"github.com/rishabpremish/Card-Games-sub000/internal/room"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection is one client socket. It implements room.Session.
type Connection struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	rooms  *room.Manager
	logger *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	onClose   func(*Connection)

	mu         sync.RWMutex
	room       *room.Room
	seat       room.Seat
	spectating bool
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, rooms *room.Manager, logger *log.Logger, sendBuffer int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		rooms:  rooms,
		logger: logger.WithPrefix("conn").With("conn", id[:8]),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID identifies the connection to rooms
func (c *Connection) ID() string { return c.id }

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the socket and detaches the connection from its room. The
// seat itself is kept for reconnects.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
		go c.detach()
	})
	return err
}

func (c *Connection) detach() {
	r, seat, spectating := c.current()
	if r != nil {
		if spectating {
			r.RemoveSpectator(c.id)
		} else if seat.PlayerID != "" {
			r.Disconnect(seat.PlayerID, c.id)
		}
	}
	if c.onClose != nil {
		c.onClose(c)
	}
}

// Send queues a message for the client without blocking. A client that lets
// its buffer fill is disconnected.
func (c *Connection) Send(msg any) error {
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrSendBufferFull
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.Decode(data)
		if err != nil {
			code := protocol.CodeInvalidMessage
			if errors.Is(err, protocol.ErrUnknownMessageType) {
				code = protocol.CodeUnknownMessageType
			}
			c.sendError(code, err)
			continue
		}
		c.handleMessage(msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// current returns the room the connection is attached to. Rooms that have
// since closed are forgotten.
func (c *Connection) current() (*room.Room, room.Seat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return nil, room.Seat{}, false
	}
	select {
	case <-c.room.Done():
		c.room, c.seat, c.spectating = nil, room.Seat{}, false
		return nil, room.Seat{}, false
	default:
	}
	return c.room, c.seat, c.spectating
}

func (c *Connection) attach(r *room.Room, seat room.Seat, spectating bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room, c.seat, c.spectating = r, seat, spectating
}

func (c *Connection) clear() {
	c.attach(nil, room.Seat{}, false)
}

// Release forgets the seat held in the given room. Rooms call it when
// another connection reconnects to the seat.
func (c *Connection) Release(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != nil && !c.spectating && c.room.Code() == roomCode {
		c.room, c.seat = nil, room.Seat{}
		c.logger.Info("Seat taken over by another connection", "room", roomCode)
	}
}

// handleMessage routes one decoded client message
func (c *Connection) handleMessage(msg protocol.ClientMessage) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case protocol.TypePing:
		_ = c.Send(&protocol.Pong{Type: protocol.TypePong})
	case protocol.TypeCreateRoom, protocol.TypeJoinRoom, protocol.TypeSpectateRoom, protocol.TypeReconnect:
		c.handleEnter(msg)
	case protocol.TypeLeaveRoom:
		c.handleLeave()
	default:
		c.handleInRoom(msg)
	}
}

// handleEnter attaches the connection to a room as a player or spectator
func (c *Connection) handleEnter(msg protocol.ClientMessage) {
	if r, _, _ := c.current(); r != nil {
		c.sendError(protocol.CodeAlreadyInRoom, errors.New("already in a room; leave first"))
		return
	}

	var (
		seat room.Seat
		err  error
	)
	switch msg.Type {
	case protocol.TypeCreateRoom:
		seat, err = c.rooms.CreateRoom(c.ctx, c, msg.PlayerName, msg.BuyIn, msg.UserID)
	case protocol.TypeJoinRoom:
		seat, err = c.rooms.JoinRoom(c.ctx, msg.RoomCode, c, msg.PlayerName, msg.BuyIn, msg.UserID)
	case protocol.TypeReconnect:
		seat, err = c.rooms.Reconnect(msg.RoomCode, msg.PlayerID, msg.SessionToken, c)
	case protocol.TypeSpectateRoom:
		var r *room.Room
		r, err = c.rooms.Spectate(msg.RoomCode, c)
		if err == nil {
			c.attach(r, room.Seat{}, true)
			c.logger.Info("Spectating", "room", r.Code())
		}
	}
	if err != nil {
		c.sendError(errorCode(err), err)
		return
	}
	if msg.Type == protocol.TypeSpectateRoom {
		return
	}

	r, ok := c.rooms.Room(seat.RoomCode)
	if !ok {
		c.sendError(protocol.CodeRoomNotFound, room.ErrRoomNotFound)
		return
	}
	c.attach(r, seat, false)
	c.logger.Info("Seated", "room", seat.RoomCode, "player", seat.PlayerID, "type", msg.Type)
	if seat.WalletErr != nil {
		c.sendError(protocol.CodeWalletUnavailable, seat.WalletErr)
	}
}

func (c *Connection) handleLeave() {
	r, seat, spectating := c.current()
	if r == nil {
		c.sendError(protocol.CodeNotInRoom, room.ErrNotInRoom)
		return
	}
	if spectating {
		r.RemoveSpectator(c.id)
		c.clear()
		_ = c.Send(&protocol.LeftRoom{Type: protocol.TypeLeftRoom})
		return
	}

	cashOut, err := r.Leave(seat)
	if err != nil {
		if errors.Is(err, room.ErrSessionReplaced) {
			c.clear()
		}
		c.sendError(errorCode(err), err)
		return
	}
	c.clear()
	c.logger.Info("Left room", "room", r.Code(), "player", seat.PlayerID, "cashOut", cashOut)
	_ = c.Send(&protocol.LeftRoom{Type: protocol.TypeLeftRoom, CashOutAmount: cashOut})
}

// handleInRoom applies a command that needs a seat
func (c *Connection) handleInRoom(msg protocol.ClientMessage) {
	r, seat, spectating := c.current()
	if r == nil || spectating {
		c.sendError(protocol.CodeNotInRoom, room.ErrNotInRoom)
		return
	}

	var err error
	switch msg.Type {
	case protocol.TypeStartGame:
		err = r.Start(seat)
	case protocol.TypeNewHand:
		err = r.NewHand(seat)
	case protocol.TypePlayerAction:
		err = r.Act(seat, msg.Action, msg.Amount)
	case protocol.TypeSetOptions:
		err = r.SetOptions(seat, msg.AutoInsurance, msg.RunItTwiceOptIn)
	}
	if errors.Is(err, room.ErrSessionReplaced) {
		c.clear()
	}
	if err != nil {
		c.logger.Debug("Command rejected", "type", msg.Type, "error", err)
		c.sendError(errorCode(err), err)
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code string, err error) {
	_ = c.Send(protocol.NewError(code, err)) // Ignore send errors during error handling
}

// errorCode maps room and game errors onto protocol error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrRoomClosed):
		return protocol.CodeRoomNotFound
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, game.ErrTableFull):
		return protocol.CodeRoomFull
	case errors.Is(err, room.ErrHandInProgress), errors.Is(err, game.ErrHandInProgress):
		return protocol.CodeHandInProgress
	case errors.Is(err, room.ErrInsufficientFunds):
		return protocol.CodeInsufficientFunds
	case errors.Is(err, room.ErrInvalidBuyIn):
		return protocol.CodeInvalidBuyIn
	case errors.Is(err, room.ErrNameTaken), errors.Is(err, game.ErrDuplicatePlayer):
		return protocol.CodeNameTaken
	case errors.Is(err, room.ErrNotHost):
		return protocol.CodeNotHost
	case errors.Is(err, room.ErrNotInRoom), errors.Is(err, game.ErrPlayerNotFound):
		return protocol.CodeNotInRoom
	case errors.Is(err, room.ErrReconnectFailed):
		return protocol.CodeReconnectFailed
	case errors.Is(err, room.ErrSessionReplaced):
		return protocol.CodeSessionReplaced
	case errors.Is(err, room.ErrWalletUnavailable):
		return protocol.CodeWalletUnavailable
	case errors.Is(err, room.ErrNotStarted),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrIllegalAction),
		errors.Is(err, game.ErrRaiseTooSmall),
		errors.Is(err, game.ErrInsufficientChips),
		errors.Is(err, game.ErrHandNotActive),
		errors.Is(err, game.ErrNotEnoughPlayers):
		return protocol.CodeActionFailed
	default:
		return protocol.CodeInternal
	}
}
