package room

import (
	"slices"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// message wraps a recipient's snapshot in a server message
type message func(gs *protocol.GameState) any

func gameUpdate(msgType string) message {
	return func(gs *protocol.GameState) any {
		return &protocol.GameUpdate{Type: msgType, GameState: gs}
	}
}

func playerEvent(msgType, playerID, name string) message {
	return func(gs *protocol.GameState) any {
		return &protocol.PlayerEvent{Type: msgType, PlayerID: playerID, Name: name, GameState: gs}
	}
}

// redactLog hides the cards on entries that belong to other players. Street
// entries carry board cards and stay as they are.
func redactLog(entries []game.LogEntry, viewerID string) []game.LogEntry {
	for i := range entries {
		e := &entries[i]
		if e.PlayerID != "" && (viewerID == "" || e.PlayerID != viewerID) {
			e.Cards = nil
		}
	}
	return entries
}

// snapshot builds the room as seen by viewerID. Only the viewer's own hole
// cards are included; an empty viewerID sees none.
func (r *Room) snapshot(viewerID string) *protocol.GameState {
	t := r.table
	gs := &protocol.GameState{
		RoomCode:           r.code,
		HostID:             r.hostID,
		GameState:          t.State.String(),
		CommunityCards:     append([]deck.Card{}, t.Board...),
		SecondBoard:        slices.Clone(t.SecondBoard),
		Pot:                t.Pot,
		CurrentBet:         t.CurrentBet,
		MinRaise:           t.MinRaise,
		DealerIndex:        t.DealerIndex,
		CurrentPlayerIndex: t.CurrentPlayerIndex,
		HandNumber:         t.HandNumber,
		ActionLog:          redactLog(t.Log.Tail(r.cfg.LogTail), viewerID),
		SmallBlind:         t.Rules().SmallBlind,
		BigBlind:           t.Rules().BigBlind,
		Players:            make([]protocol.PlayerView, 0, len(t.Players)),
		SpectatorCount:     len(r.spectators),
	}
	if t.State == game.Showdown {
		gs.Winners = slices.Clone(t.Winners)
	}
	if r.turnDeadline != nil {
		deadline := *r.turnDeadline
		gs.TurnDeadline = &deadline
	}

	for _, p := range t.Players {
		view := protocol.PlayerView{
			ID:              p.ID,
			Name:            p.Name,
			Chips:           p.Chips,
			Bet:             p.Bet,
			TotalBet:        p.TotalBet,
			Folded:          p.Folded,
			IsAllIn:         p.AllIn,
			IsConnected:     p.Connected,
			SeatIndex:       p.SeatIndex,
			Cards:           []*deck.Card{nil, nil},
			AutoInsurance:   p.AutoInsurance,
			RunItTwiceOptIn: p.RunItTwiceOptIn,
			InHand:          p.InHand(),
		}
		if viewerID != "" && p.ID == viewerID {
			for i := 0; i < len(p.Cards) && i < 2; i++ {
				c := p.Cards[i]
				view.Cards[i] = &c
			}
			gs.You = r.you(p)
		}
		gs.Players = append(gs.Players, view)
	}
	return gs
}

func (r *Room) you(p *game.Player) *protocol.YouView {
	t := r.table
	minTo, maxTo := t.RaiseBounds(p)
	actions := t.ValidActions(p.ID)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}
	return &protocol.YouView{
		PlayerID:     p.ID,
		ToCall:       t.ToCall(p),
		MinRaiseTo:   minTo,
		MaxRaiseTo:   maxTo,
		ValidActions: names,
	}
}

// broadcast sends every member its own view and queues the spectator view
func (r *Room) broadcast(msg message) {
	r.broadcastExcept("", msg)
}

func (r *Room) broadcastExcept(skipID string, msg message) {
	if r.closed {
		return
	}
	for id, m := range r.members {
		if id == skipID || m.session == nil {
			continue
		}
		r.send(m.session, msg(r.snapshot(id)))
	}
	r.broadcastSpectators(msg)
}

// broadcastSpectators delays spectator views by the configured delay. Views
// are queued so they go out in order.
func (r *Room) broadcastSpectators(msg message) {
	if len(r.spectators) == 0 {
		return
	}
	ids := make([]string, 0, len(r.spectators))
	for id := range r.spectators {
		ids = append(ids, id)
	}
	r.queueSpectatorView(ids, msg)
}

// queueSpectatorView sends a redacted view to the given spectators once the
// delay has passed
func (r *Room) queueSpectatorView(ids []string, msg message) {
	gs := r.snapshot("")
	if r.cfg.SpectatorDelay <= 0 {
		for _, id := range ids {
			if s, ok := r.spectators[id]; ok {
				r.send(s, msg(gs))
			}
		}
		return
	}
	r.spectatorQueue = append(r.spectatorQueue, pendingView{
		due: r.clock.Now().Add(r.cfg.SpectatorDelay),
		msg: msg,
		gs:  gs,
		to:  ids,
	})
	r.clock.AfterFunc(r.cfg.SpectatorDelay, func() {
		r.post(r.flushSpectators)
	}, "room", "spectator")
}

func (r *Room) flushSpectators() {
	now := r.clock.Now()
	n := 0
	for _, v := range r.spectatorQueue {
		if v.due.After(now) {
			break
		}
		for _, id := range v.to {
			if s, ok := r.spectators[id]; ok {
				r.send(s, v.msg(v.gs))
			}
		}
		n++
	}
	r.spectatorQueue = r.spectatorQueue[n:]
}
