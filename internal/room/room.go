// Package room runs poker rooms. Each room is an actor: one goroutine owns
// the room's game.Table and applies commands strictly in arrival order.
// Callers either wait for a command to finish (do) or fire it and forget
// (post, used by timers).
package room

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/handhistory"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// Session is one client connection as seen by a room
type Session interface {
	ID() string
	Send(msg any) error
}

// releaser is implemented by sessions that remember the seat they hold
type releaser interface {
	Release(roomCode string)
}

// Wallet is the part of the ledger a room needs
type Wallet interface {
	Debit(ctx context.Context, userID string, amount int, tag string) (int, error)
	Credit(userID string, amount int, tag, note string)
	RecordMatchRound(round ledger.MatchRound)
}

// HandRecorder stores finished hands
type HandRecorder interface {
	Record(hand *handhistory.HandHistory)
}

type noopWallet struct{}

func (noopWallet) Debit(context.Context, string, int, string) (int, error) { return 0, nil }
func (noopWallet) Credit(string, int, string, string)                      {}
func (noopWallet) RecordMatchRound(ledger.MatchRound)                      {}

// Seat is the result of sitting down in a room
type Seat struct {
	RoomCode     string
	PlayerID     string
	SessionToken string
	// SessionID is the connection that holds the seat. Commands from any
	// other connection are rejected.
	SessionID string
	// WalletErr is set when the buy-in could not be charged but the player
	// was seated anyway
	WalletErr error
}

// member is a seated player's connection state
type member struct {
	playerID  string
	name      string
	userID    string
	tokenHash []byte
	session   Session

	graceTimer   *quartz.Timer
	graceToken   int
	graceExpired bool
}

type refund struct {
	userID string
	amount int
}

type pendingView struct {
	due time.Time
	msg message
	gs  *protocol.GameState
	to  []string // spectator session ids watching when the view was taken
}

// Room is one poker table and the sessions attached to it
type Room struct {
	code    string
	cfg     Config
	clock   quartz.Clock
	logger  *log.Logger
	wallet  Wallet
	history HandRecorder
	onClose func(code string)

	cmds chan func()
	done chan struct{}

	// Everything below is owned by the actor goroutine
	table      *game.Table
	hostID     string
	members    map[string]*member
	spectators map[string]Session
	closed     bool

	turnTimer    *quartz.Timer
	turnToken    int
	turnPlayer   string
	turnHand     int
	turnDeadline *time.Time

	emptyTimer *quartz.Timer
	emptyToken int

	nextHandTimer *quartz.Timer
	nextHandToken int

	spectatorQueue []pendingView

	handActive bool
	handStart  map[string]int // chips before blinds
	handBets   map[string]int
	handUsers  map[string]string
	handDeal   handhistory.Deal

	lastGood map[string]refund
}

func newRoom(code string, cfg Config, table *game.Table, wallet Wallet, history HandRecorder, clock quartz.Clock, logger *log.Logger, onClose func(string)) *Room {
	r := &Room{
		code:       code,
		cfg:        cfg,
		clock:      clock,
		logger:     logger.With("room", code),
		wallet:     wallet,
		history:    history,
		onClose:    onClose,
		cmds:       make(chan func(), 64),
		done:       make(chan struct{}),
		table:      table,
		members:    make(map[string]*member),
		spectators: make(map[string]Session),
		lastGood:   make(map[string]refund),
	}
	go r.run()
	return r
}

// Code returns the room code
func (r *Room) Code() string { return r.code }

// Done is closed once the room has shut down
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) run() {
	for {
		select {
		case cmd := <-r.cmds:
			r.exec(cmd)
		case <-r.done:
			return
		}
	}
}

func (r *Room) exec(cmd func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Room panicked, closing", "panic", p, "stack", string(debug.Stack()))
			r.teardown("internal error", r.lastGood)
		}
	}()
	if r.closed {
		return
	}
	cmd()
}

// do runs fn on the actor and waits for its result
func (r *Room) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case r.cmds <- func() { errc <- fn() }:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case err := <-errc:
		return err
	case <-r.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

// post queues fn on the actor without waiting
func (r *Room) post(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.done:
	}
}

// settle checks the table after a mutation and keeps timers in step with it.
// It returns false if the room had to be torn down.
func (r *Room) settle(acted bool) bool {
	if err := r.table.CheckInvariants(); err != nil {
		r.logger.Error("Table invariant failed, closing room", "error", err, "hand", r.table.HandNumber)
		r.teardown("table state corrupted", r.lastGood)
		return false
	}
	if r.handActive {
		for _, p := range r.table.Players {
			if p.InHand() {
				r.handBets[p.ID] = p.TotalBet
			}
		}
	}
	r.lastGood = r.refunds()

	if r.handActive && !r.table.State.Betting() {
		r.handActive = false
		r.onHandEnd()
	}
	r.scheduleTurn(acted)
	return true
}

// refunds is what each seated player would be owed if the hand were voided now
func (r *Room) refunds() map[string]refund {
	out := make(map[string]refund, len(r.table.Players))
	for _, p := range r.table.Players {
		amount := p.Chips
		if r.table.State.Betting() {
			amount += p.TotalBet
		}
		out[p.ID] = refund{userID: p.UserID, amount: amount}
	}
	return out
}

// teardown closes the room, paying out the given amounts
func (r *Room) teardown(reason string, payouts map[string]refund) {
	if r.closed {
		return
	}
	r.closed = true
	r.stopTimer(&r.turnTimer)
	r.stopTimer(&r.emptyTimer)
	r.stopTimer(&r.nextHandTimer)
	for _, m := range r.members {
		r.stopTimer(&m.graceTimer)
	}

	for id, p := range payouts {
		if p.amount > 0 && p.userID != "" {
			r.wallet.Credit(p.userID, p.amount, "poker_cash_out", fmt.Sprintf("room %s closed: %s", r.code, reason))
		}
		r.logger.Info("Paid out on close", "player", id, "amount", p.amount)
	}

	msg := &protocol.RoomClosed{Type: protocol.TypeRoomClosed, Reason: reason}
	for _, m := range r.members {
		if m.session != nil {
			r.send(m.session, msg)
		}
	}
	for _, s := range r.spectators {
		r.send(s, msg)
	}

	r.logger.Info("Room closed", "reason", reason)
	if r.onClose != nil {
		r.onClose(r.code)
	}
	close(r.done)
}

// Close shuts the room down, cashing everyone out
func (r *Room) Close(reason string) error {
	err := r.do(func() error {
		r.teardown(reason, r.refunds())
		return nil
	})
	if errors.Is(err, ErrRoomClosed) {
		return nil
	}
	return err
}

func (r *Room) stopTimer(t **quartz.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (r *Room) send(s Session, msg any) {
	if err := s.Send(msg); err != nil {
		r.logger.Debug("Failed to send to session", "session", s.ID(), "error", err)
	}
}

// connected counts sessions still attached to the room
func (r *Room) connected() int {
	n := len(r.spectators)
	for _, m := range r.members {
		if m.session != nil {
			n++
		}
	}
	return n
}

// checkEmpty arms the empty-room timer when nobody is attached and disarms
// it when someone is
func (r *Room) checkEmpty() {
	if r.connected() > 0 {
		r.stopTimer(&r.emptyTimer)
		return
	}
	if r.emptyTimer != nil {
		return
	}
	r.emptyToken++
	token := r.emptyToken
	r.emptyTimer = r.clock.AfterFunc(r.cfg.EmptyRoomGrace, func() {
		r.post(func() {
			if token != r.emptyToken || r.connected() > 0 {
				return
			}
			r.emptyTimer = nil
			r.teardown("room empty", r.refunds())
		})
	}, "room", "empty")
}
