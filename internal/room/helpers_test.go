package room

import (
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/handhistory"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
	"github.com/rishabpremish/Card-Games-sub000/internal/randutil"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type fakeSession struct {
	id       string
	mu       sync.Mutex
	msgs     []any
	released []string
}

func newSession(id string) *fakeSession { return &fakeSession{id: id} }

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *fakeSession) Release(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, roomCode)
}

func (s *fakeSession) releasedRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.released)
}

func (s *fakeSession) messages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.msgs...)
}

func typeOf(msg any) string {
	switch m := msg.(type) {
	case *protocol.Seated:
		return m.Type
	case *protocol.Spectating:
		return m.Type
	case *protocol.GameUpdate:
		return m.Type
	case *protocol.PlayerEvent:
		return m.Type
	case *protocol.RoomClosed:
		return m.Type
	case *protocol.Error:
		return m.Type
	}
	return ""
}

func stateOf(msg any) *protocol.GameState {
	switch m := msg.(type) {
	case *protocol.Seated:
		return m.GameState
	case *protocol.Spectating:
		return m.GameState
	case *protocol.GameUpdate:
		return m.GameState
	case *protocol.PlayerEvent:
		return m.GameState
	}
	return nil
}

func (s *fakeSession) types() []string {
	var out []string
	for _, m := range s.messages() {
		out = append(out, typeOf(m))
	}
	return out
}

// last returns the newest message of the given type, or nil
func (s *fakeSession) last(msgType string) any {
	msgs := s.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if typeOf(msgs[i]) == msgType {
			return msgs[i]
		}
	}
	return nil
}

// lastState returns the newest snapshot the session received
func (s *fakeSession) lastState() *protocol.GameState {
	msgs := s.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if gs := stateOf(msgs[i]); gs != nil {
			return gs
		}
	}
	return nil
}

type credit struct {
	userID string
	amount int
	tag    string
}

type fakeWallet struct {
	mem *ledger.Memory

	mu      sync.Mutex
	debitErr error
	credits []credit
	rounds  []ledger.MatchRound
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{mem: ledger.NewMemory(10000)}
}

func (w *fakeWallet) Debit(ctx context.Context, userID string, amount int, tag string) (int, error) {
	w.mu.Lock()
	err := w.debitErr
	w.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return w.mem.Debit(ctx, userID, amount, tag)
}

func (w *fakeWallet) Credit(userID string, amount int, tag, note string) {
	_, _ = w.mem.Credit(context.Background(), userID, amount, tag, note)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.credits = append(w.credits, credit{userID: userID, amount: amount, tag: tag})
}

func (w *fakeWallet) RecordMatchRound(round ledger.MatchRound) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rounds = append(w.rounds, round)
}

func (w *fakeWallet) credited(userID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, c := range w.credits {
		if c.userID == userID {
			total += c.amount
		}
	}
	return total
}

func (w *fakeWallet) matchRounds() []ledger.MatchRound {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ledger.MatchRound(nil), w.rounds...)
}

type env struct {
	t       *testing.T
	ctx     context.Context
	mgr     *Manager
	clock   *quartz.Mock
	wallet  *fakeWallet
	history *fakeRecorder
}

type fakeRecorder struct {
	mu    sync.Mutex
	hands []*handhistory.HandHistory
}

func (f *fakeRecorder) Record(hand *handhistory.HandHistory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hands = append(f.hands, hand)
}

func (f *fakeRecorder) recorded() []*handhistory.HandHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.hands)
}

func newEnv(t *testing.T, mutate func(cfg *Config)) *env {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SpectatorDelay = 0
	cfg.EmptyRoomGrace = 10 * time.Minute
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	clock := quartz.NewMock(t)
	wallet := newFakeWallet()
	history := &fakeRecorder{}
	mgr := NewManager(cfg, wallet, testLogger(),
		WithClock(clock),
		WithRand(func() *rand.Rand { return randutil.New(7) }),
		WithHandHistory(history),
	)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })
	return &env{t: t, ctx: ctx, mgr: mgr, clock: clock, wallet: wallet, history: history}
}

func (e *env) create(name string) (*Room, *fakeSession, Seat) {
	e.t.Helper()
	s := newSession("s-" + name)
	seat, err := e.mgr.CreateRoom(e.ctx, s, name, 1000, "user-"+name)
	require.NoError(e.t, err)
	r, ok := e.mgr.Room(seat.RoomCode)
	require.True(e.t, ok)
	return r, s, seat
}

func (e *env) join(r *Room, name string) (*fakeSession, Seat) {
	e.t.Helper()
	s := newSession("s-" + name)
	seat, err := e.mgr.JoinRoom(e.ctx, r.Code(), s, name, 1000, "user-"+name)
	require.NoError(e.t, err)
	return s, seat
}

// inspect reads room state on the actor
func (e *env) inspect(r *Room, fn func(r *Room)) {
	e.t.Helper()
	require.NoError(e.t, r.do(func() error {
		fn(r)
		return nil
	}))
}

func (e *env) table(r *Room) (state game.State, hand int, current string) {
	e.inspect(r, func(r *Room) {
		state = r.table.State
		hand = r.table.HandNumber
		if p := r.table.CurrentPlayer(); p != nil {
			current = p.ID
		}
	})
	return state, hand, current
}

func (e *env) chips(r *Room, playerID string) int {
	chips := -1
	e.inspect(r, func(r *Room) {
		if p := r.table.Player(playerID); p != nil {
			chips = p.Chips
		}
	})
	return chips
}

// advance moves the mock clock and waits until the fired timers' commands
// have run on the actor
func (e *env) advance(r *Room, d time.Duration) {
	e.t.Helper()
	e.clock.Advance(d).MustWait(e.ctx)
	e.inspect(r, func(*Room) {})
}

func (e *env) waitClosed(r *Room) {
	e.t.Helper()
	select {
	case <-r.Done():
	case <-e.ctx.Done():
		e.t.Fatal("room did not close")
	}
}
