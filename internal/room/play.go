package room

import (
	"time"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/handhistory"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// Start deals the first hand. Host only, and only before the game has begun.
func (r *Room) Start(seat Seat) error {
	return r.do(func() error {
		if err := r.checkHost(seat); err != nil {
			return err
		}
		if r.table.State != game.Waiting {
			return ErrHandInProgress
		}
		return r.startHand(protocol.TypeGameStarted)
	})
}

// NewHand deals the next hand after a showdown. Host only.
func (r *Room) NewHand(seat Seat) error {
	return r.do(func() error {
		if err := r.checkHost(seat); err != nil {
			return err
		}
		switch {
		case r.table.State == game.Waiting:
			return ErrNotStarted
		case r.table.State.Betting():
			return ErrHandInProgress
		}
		return r.startHand(protocol.TypeGameUpdate)
	})
}

// Act applies a betting action for the player
func (r *Room) Act(seat Seat, action string, amount int) error {
	return r.do(func() error {
		if _, err := r.holder(seat); err != nil {
			return err
		}
		a, err := game.ParseAction(action)
		if err != nil {
			return err
		}
		if err := r.table.Act(seat.PlayerID, a, amount); err != nil {
			return err
		}
		if !r.settle(true) {
			return nil
		}
		r.broadcast(gameUpdate(protocol.TypeGameUpdate))
		return nil
	})
}

func (r *Room) checkHost(seat Seat) error {
	if _, err := r.holder(seat); err != nil {
		return err
	}
	if r.hostID != seat.PlayerID {
		return ErrNotHost
	}
	return nil
}

func (r *Room) startHand(msgType string) error {
	r.removeExpired()
	r.nextHandToken++
	r.stopTimer(&r.nextHandTimer)

	start := make(map[string]int, len(r.table.Players))
	users := make(map[string]string, len(r.table.Players))
	for _, p := range r.table.Players {
		start[p.ID] = p.Chips
		users[p.ID] = p.UserID
	}
	if err := r.table.StartHand(); err != nil {
		return err
	}
	r.handActive = true
	r.handStart = start
	r.handUsers = users
	r.handBets = make(map[string]int, len(start))
	if r.history != nil {
		r.handDeal = handhistory.Snapshot(r.table, start, r.clock.Now())
	}

	r.logger.Info("Hand started", "hand", r.table.HandNumber, "players", len(start))
	if !r.settle(true) {
		return nil
	}
	r.broadcast(gameUpdate(msgType))
	return nil
}

// onHandEnd records each dealt player's result and schedules what comes next
func (r *Room) onHandEnd() {
	hand := r.table.HandNumber
	for id, bet := range r.handBets {
		payout := 0
		if p := r.table.Player(id); p != nil && !p.Left() {
			payout = p.Chips - (r.handStart[id] - bet)
		}
		userID := r.handUsers[id]
		if userID == "" {
			continue
		}
		r.wallet.RecordMatchRound(ledger.MatchRound{
			UserID: userID,
			Game:   "poker",
			Bet:    bet,
			Payout: payout,
			Metadata: map[string]any{
				"roomCode":   r.code,
				"handNumber": hand,
				"playerId":   id,
			},
		})
	}
	if r.history != nil {
		r.history.Record(handhistory.Build(r.code, r.handDeal, r.table))
	}
	r.logger.Info("Hand finished", "hand", hand, "winners", len(r.table.Winners), "houseNet", r.table.HouseNet())

	r.removeExpired()
	r.scheduleNextHand()
}

func (r *Room) scheduleNextHand() {
	if r.cfg.AutoNextHand <= 0 {
		return
	}
	r.nextHandToken++
	token := r.nextHandToken
	r.nextHandTimer = r.clock.AfterFunc(r.cfg.AutoNextHand, func() {
		r.post(func() {
			if token != r.nextHandToken || r.table.State != game.Showdown {
				return
			}
			r.nextHandTimer = nil
			if err := r.startHand(protocol.TypeGameUpdate); err != nil {
				r.logger.Info("Not dealing next hand", "reason", err)
			}
		})
	}, "room", "next-hand")
}

// scheduleTurn arms the deadline for the player to act. A new timer is only
// started when the turn has moved.
func (r *Room) scheduleTurn(acted bool) {
	cur := r.table.CurrentPlayer()
	if cur == nil {
		r.clearTurn()
		return
	}
	if !acted && r.turnTimer != nil && cur.ID == r.turnPlayer && r.table.HandNumber == r.turnHand {
		return
	}
	r.armTurn(cur, r.turnTimeout(cur))
}

// rescheduleTurn shortens the current deadline when the actor drops
func (r *Room) rescheduleTurn() {
	cur := r.table.CurrentPlayer()
	if cur == nil {
		return
	}
	d := r.turnTimeout(cur)
	if r.turnDeadline != nil {
		if remaining := r.turnDeadline.Sub(r.clock.Now()); remaining < d {
			return
		}
	}
	r.armTurn(cur, d)
}

func (r *Room) turnTimeout(p *game.Player) time.Duration {
	if !p.Connected {
		return r.cfg.DisconnectedTurnTimeout
	}
	return r.cfg.TurnTimeout
}

func (r *Room) armTurn(p *game.Player, d time.Duration) {
	r.stopTimer(&r.turnTimer)
	r.turnToken++
	token := r.turnToken
	playerID := p.ID
	deadline := r.clock.Now().Add(d)

	r.turnPlayer = playerID
	r.turnHand = r.table.HandNumber
	r.turnDeadline = &deadline
	r.turnTimer = r.clock.AfterFunc(d, func() {
		r.post(func() { r.onTurnExpired(playerID, token) })
	}, "room", "turn")
}

func (r *Room) clearTurn() {
	r.stopTimer(&r.turnTimer)
	r.turnToken++
	r.turnPlayer = ""
	r.turnDeadline = nil
}

// onTurnExpired forces the timed-out player to check or fold. A stale token
// means the turn already moved on.
func (r *Room) onTurnExpired(playerID string, token int) {
	if token != r.turnToken {
		return
	}
	r.turnTimer = nil
	action, err := r.table.Timeout(playerID)
	if err != nil {
		r.logger.Warn("Timeout did not apply", "player", playerID, "error", err)
		r.clearTurn()
		return
	}
	r.logger.Info("Turn timed out", "player", playerID, "action", action)
	if !r.settle(true) {
		return
	}
	r.broadcast(gameUpdate(protocol.TypeGameUpdate))
}
