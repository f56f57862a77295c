package room

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
	"github.com/rishabpremish/Card-Games-sub000/internal/randutil"
	"github.com/rishabpremish/Card-Games-sub000/internal/roomcode"
)

// Manager is the directory of live rooms
type Manager struct {
	cfg     Config
	wallet  Wallet
	history HandRecorder
	clock   quartz.Clock
	logger  *log.Logger
	codes   *roomcode.Generator
	rng     func() *rand.Rand

	mu    sync.RWMutex
	rooms map[string]*Room
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithClock sets the clock used for every room timer
func WithClock(clock quartz.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithRand sets how each room's shuffling RNG is created
func WithRand(newRand func() *rand.Rand) ManagerOption {
	return func(m *Manager) {
		m.rng = newRand
	}
}

// WithCodes sets the room code generator
func WithCodes(codes *roomcode.Generator) ManagerOption {
	return func(m *Manager) {
		m.codes = codes
	}
}

// WithHandHistory records every finished hand
func WithHandHistory(rec HandRecorder) ManagerOption {
	return func(m *Manager) {
		m.history = rec
	}
}

// NewManager creates an empty directory. A nil wallet skips all ledger calls.
func NewManager(cfg Config, wallet Wallet, logger *log.Logger, opts ...ManagerOption) *Manager {
	if wallet == nil {
		wallet = noopWallet{}
	}
	m := &Manager{
		cfg:    cfg,
		wallet: wallet,
		clock:  quartz.NewReal(),
		logger: logger.WithPrefix("room"),
		codes:  roomcode.NewGenerator(nil),
		rng:    randutil.NewSecure,
		rooms:  make(map[string]*Room),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRoom opens a room with the caller seated as host
func (m *Manager) CreateRoom(ctx context.Context, s Session, name string, buyIn int, userID string) (Seat, error) {
	if buyIn < m.cfg.MinBuyIn || buyIn > m.cfg.MaxBuyIn {
		return Seat{}, fmt.Errorf("%w: must be between %d and %d", ErrInvalidBuyIn, m.cfg.MinBuyIn, m.cfg.MaxBuyIn)
	}

	table := game.NewTable(m.rng(), m.cfg.Rules, game.WithClock(m.clock))

	m.mu.Lock()
	code := m.codes.Generate()
	for m.rooms[code] != nil {
		code = m.codes.Generate()
	}
	r := newRoom(code, m.cfg, table, m.wallet, m.history, m.clock, m.logger, m.remove)
	m.rooms[code] = r
	m.mu.Unlock()

	m.logger.Info("Room created", "room", code)
	seat, err := r.join(ctx, s, name, buyIn, userID, protocol.TypeRoomCreated)
	if err != nil {
		_ = r.Close("creation failed")
		return Seat{}, err
	}
	return seat, nil
}

// JoinRoom seats a player in an existing room
func (m *Manager) JoinRoom(ctx context.Context, code string, s Session, name string, buyIn int, userID string) (Seat, error) {
	r, ok := m.Room(code)
	if !ok {
		return Seat{}, ErrRoomNotFound
	}
	return r.join(ctx, s, name, buyIn, userID, protocol.TypeRoomJoined)
}

// Spectate attaches a viewer to a room
func (m *Manager) Spectate(code string, s Session) (*Room, error) {
	r, ok := m.Room(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.Spectate(s); err != nil {
		return nil, err
	}
	return r, nil
}

// Reconnect rebinds a session to a seat
func (m *Manager) Reconnect(code, playerID, token string, s Session) (Seat, error) {
	r, ok := m.Room(code)
	if !ok {
		return Seat{}, ErrRoomNotFound
	}
	return r.Reconnect(playerID, token, s)
}

// Room looks a room up by code
func (m *Manager) Room(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomcode.Normalize(code)]
	return r, ok
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func (m *Manager) remove(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
	m.logger.Info("Room removed", "room", code)
}

// Shutdown closes every room, cashing all players out
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		go func() { _ = r.Close("server shutting down") }()
	}
	for _, r := range rooms {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
