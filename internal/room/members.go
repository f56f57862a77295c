package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// tokenCost keeps reconnects cheap; tokens are random, not user passwords
const tokenCost = bcrypt.MinCost

// join seats a new player. The buy-in is debited before the actor is asked
// to seat the player and refunded if seating then fails.
func (r *Room) join(ctx context.Context, s Session, name string, buyIn int, userID, replyType string) (Seat, error) {
	name = strings.TrimSpace(name)
	if buyIn < r.cfg.MinBuyIn || buyIn > r.cfg.MaxBuyIn {
		return Seat{}, fmt.Errorf("%w: must be between %d and %d", ErrInvalidBuyIn, r.cfg.MinBuyIn, r.cfg.MaxBuyIn)
	}
	if err := r.do(func() error { return r.canSeat(name) }); err != nil {
		return Seat{}, err
	}

	seat := Seat{RoomCode: r.code, PlayerID: uuid.NewString(), SessionToken: uuid.NewString(), SessionID: s.ID()}
	hash, err := bcrypt.GenerateFromPassword([]byte(seat.SessionToken), tokenCost)
	if err != nil {
		return Seat{}, fmt.Errorf("hash session token: %w", err)
	}

	debited := false
	if userID != "" {
		if _, err := r.wallet.Debit(ctx, userID, buyIn, "poker_buy_in"); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return Seat{}, ErrInsufficientFunds
			}
			r.logger.Warn("Buy-in debit failed, seating anyway", "user", userID, "amount", buyIn, "error", err)
			seat.WalletErr = fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
		} else {
			debited = true
		}
	}

	err = r.do(func() error {
		if err := r.canSeat(name); err != nil {
			return err
		}
		p := &game.Player{
			ID:        seat.PlayerID,
			Name:      name,
			UserID:    userID,
			Chips:     buyIn,
			Connected: true,
		}
		if err := r.table.AddPlayer(p); err != nil {
			return err
		}
		m := &member{playerID: p.ID, name: name, userID: userID, tokenHash: hash, session: s}
		r.members[p.ID] = m
		if r.hostID == "" {
			r.hostID = p.ID
		}
		if !r.settle(false) {
			return ErrRoomClosed
		}

		r.send(s, &protocol.Seated{
			Type:         replyType,
			PlayerID:     p.ID,
			RoomCode:     r.code,
			SessionToken: seat.SessionToken,
			GameState:    r.snapshot(p.ID),
		})
		r.broadcastExcept(p.ID, playerEvent(protocol.TypePlayerJoined, p.ID, name))
		r.checkEmpty()
		r.logger.Info("Player joined", "player", p.ID, "name", name, "buyIn", buyIn)
		return nil
	})
	if err != nil {
		if debited {
			r.wallet.Credit(userID, buyIn, "poker_refund", "seat unavailable in room "+r.code)
		}
		return Seat{}, err
	}
	return seat, nil
}

func (r *Room) canSeat(name string) error {
	if len(r.table.Players) >= r.cfg.Rules.MaxSeats {
		return ErrRoomFull
	}
	if r.table.State.Betting() {
		return ErrHandInProgress
	}
	for _, m := range r.members {
		if strings.EqualFold(m.name, name) {
			return ErrNameTaken
		}
	}
	return nil
}

// Spectate attaches a read-only viewer
func (r *Room) Spectate(s Session) error {
	return r.do(func() error {
		r.spectators[s.ID()] = s
		r.queueSpectatorView([]string{s.ID()}, func(gs *protocol.GameState) any {
			return &protocol.Spectating{Type: protocol.TypeSpectating, RoomCode: r.code, GameState: gs}
		})
		r.checkEmpty()
		r.logger.Debug("Spectator joined", "session", s.ID(), "spectators", len(r.spectators))
		return nil
	})
}

// RemoveSpectator detaches a viewer
func (r *Room) RemoveSpectator(sessionID string) {
	_ = r.do(func() error {
		if _, ok := r.spectators[sessionID]; !ok {
			return nil
		}
		delete(r.spectators, sessionID)
		r.checkEmpty()
		return nil
	})
}

// Leave cashes the player out. Mid-hand the player folds at once. A second
// call returns 0 and changes nothing.
func (r *Room) Leave(seat Seat) (int, error) {
	var cashOut int
	err := r.do(func() error {
		m, err := r.holder(seat)
		if errors.Is(err, ErrNotInRoom) {
			return nil
		}
		if err != nil {
			return err
		}
		// the actor keeps their deadline unless the turn moved on
		cur, street := r.table.CurrentPlayer(), r.table.State
		wasCurrent := cur != nil && cur.ID == m.playerID
		amount, err := r.removeMember(m, "left")
		if err != nil {
			return err
		}
		cashOut = amount
		if !r.settle(wasCurrent || r.table.State != street) {
			return nil
		}
		r.broadcast(playerEvent(protocol.TypePlayerLeft, m.playerID, m.name))
		r.checkEmpty()
		return nil
	})
	if errors.Is(err, ErrRoomClosed) {
		return cashOut, nil
	}
	return cashOut, err
}

// removeMember takes the player off the table, credits the wallet and
// passes the host role on
func (r *Room) removeMember(m *member, reason string) (int, error) {
	nextHost := r.hostID
	if r.hostID == m.playerID {
		nextHost = r.nextHost(m.playerID)
	}

	amount, err := r.table.RemovePlayer(m.playerID)
	if err != nil && !errors.Is(err, game.ErrPlayerNotFound) {
		return 0, err
	}
	r.stopTimer(&m.graceTimer)
	delete(r.members, m.playerID)
	r.hostID = nextHost

	if amount > 0 && m.userID != "" {
		r.wallet.Credit(m.userID, amount, "poker_cash_out", fmt.Sprintf("room %s: %s", r.code, reason))
	}
	r.logger.Info("Player removed", "player", m.playerID, "name", m.name, "cashOut", amount, "reason", reason, "host", r.hostID)
	return amount, nil
}

// nextHost is the next member clockwise from the given player's seat
func (r *Room) nextHost(from string) string {
	players := r.table.Players
	start := -1
	for i, p := range players {
		if p.ID == from {
			start = i
			break
		}
	}
	n := len(players)
	for i := 1; i < n; i++ {
		p := players[(start+i+n)%n]
		if p.ID == from || p.Left() {
			continue
		}
		if _, ok := r.members[p.ID]; ok {
			return p.ID
		}
	}
	return ""
}

// Disconnect detaches a player's session. The seat is kept for the
// reconnect grace period.
func (r *Room) Disconnect(playerID, sessionID string) {
	_ = r.do(func() error {
		m := r.members[playerID]
		if m == nil || m.session == nil || m.session.ID() != sessionID {
			return nil
		}
		m.session = nil
		_ = r.table.SetConnected(playerID, false)

		m.graceToken++
		token := m.graceToken
		m.graceTimer = r.clock.AfterFunc(r.cfg.ReconnectGrace, func() {
			r.post(func() { r.onGraceExpired(playerID, token) })
		}, "room", "reconnect")

		if cur := r.table.CurrentPlayer(); cur != nil && cur.ID == playerID {
			r.rescheduleTurn()
		}
		r.broadcast(playerEvent(protocol.TypePlayerDisconnected, playerID, m.name))
		r.checkEmpty()
		r.logger.Info("Player disconnected", "player", playerID)
		return nil
	})
}

func (r *Room) onGraceExpired(playerID string, token int) {
	m := r.members[playerID]
	if m == nil || m.session != nil || m.graceToken != token {
		return
	}
	m.graceTimer = nil
	m.graceExpired = true
	r.logger.Info("Reconnect grace expired", "player", playerID)
	if !r.table.State.Betting() {
		r.removeExpired()
	}
}

// removeExpired drops players whose reconnect grace ran out. Only called
// between hands.
func (r *Room) removeExpired() {
	removed := false
	for _, m := range r.members {
		if !m.graceExpired || m.session != nil {
			continue
		}
		if _, err := r.removeMember(m, "disconnected"); err != nil {
			r.logger.Error("Failed to remove disconnected player", "player", m.playerID, "error", err)
			continue
		}
		removed = true
		r.broadcast(playerEvent(protocol.TypePlayerLeft, m.playerID, m.name))
	}
	if removed {
		r.settle(false)
		r.checkEmpty()
	}
}

// Reconnect binds a new session to an existing seat
func (r *Room) Reconnect(playerID, token string, s Session) (Seat, error) {
	var seat Seat
	err := r.do(func() error {
		m := r.members[playerID]
		if m == nil {
			return ErrReconnectFailed
		}
		if bcrypt.CompareHashAndPassword(m.tokenHash, []byte(token)) != nil {
			return ErrReconnectFailed
		}
		if old := m.session; old != nil && old.ID() != s.ID() {
			r.logger.Info("Replacing live session", "player", playerID, "old", old.ID())
			r.send(old, protocol.NewError(protocol.CodeSessionReplaced, ErrSessionReplaced))
			if rel, ok := old.(releaser); ok {
				rel.Release(r.code)
			}
		}
		m.session = s
		m.graceToken++
		m.graceExpired = false
		r.stopTimer(&m.graceTimer)
		_ = r.table.SetConnected(playerID, true)

		r.send(s, &protocol.Seated{
			Type:      protocol.TypeReconnected,
			PlayerID:  playerID,
			RoomCode:  r.code,
			GameState: r.snapshot(playerID),
		})
		r.broadcastExcept(playerID, playerEvent(protocol.TypePlayerReconnected, playerID, m.name))
		r.checkEmpty()
		seat = Seat{RoomCode: r.code, PlayerID: playerID, SessionToken: token, SessionID: s.ID()}
		r.logger.Info("Player reconnected", "player", playerID)
		return nil
	})
	return seat, err
}

// SetOptions updates a player's insurance and run it twice preferences
func (r *Room) SetOptions(seat Seat, autoInsurance, runItTwice *bool) error {
	return r.do(func() error {
		if _, err := r.holder(seat); err != nil {
			return err
		}
		if err := r.table.SetOptions(seat.PlayerID, autoInsurance, runItTwice); err != nil {
			return err
		}
		r.broadcast(gameUpdate(protocol.TypeGameUpdate))
		return nil
	})
}

// holder returns the seat's member while the seat's connection still holds it
func (r *Room) holder(seat Seat) (*member, error) {
	m := r.members[seat.PlayerID]
	if m == nil {
		return nil, ErrNotInRoom
	}
	if m.session == nil || m.session.ID() != seat.SessionID {
		return nil, ErrSessionReplaced
	}
	return m, nil
}
