package handhistory

import (
	"fmt"
	"slices"
	"time"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/game"
)

// Deal records who was dealt into a hand and in what order. Take it right
// after the deal: seats and the button move once the hand finishes.
type Deal struct {
	HandNumber int
	At         time.Time
	Players    []Dealt // clockwise from the seat left of the button
}

// Dealt is one player at the start of a hand
type Dealt struct {
	ID    string
	Name  string
	Seat  int
	Stack int // chips before the blinds
	Cards []deck.Card
}

// Snapshot captures the deal of the hand the table just started. start holds
// each player's chips before the blinds.
func Snapshot(t *game.Table, start map[string]int, at time.Time) Deal {
	d := Deal{HandNumber: t.HandNumber, At: at}
	n := len(t.Players)
	for k := 1; k <= n; k++ {
		p := t.Players[(t.DealerIndex+k)%n]
		if !p.InHand() {
			continue
		}
		d.Players = append(d.Players, Dealt{
			ID:    p.ID,
			Name:  p.Name,
			Seat:  p.SeatIndex,
			Stack: start[p.ID],
			Cards: slices.Clone(p.Cards),
		})
	}
	return d
}

// Build converts a finished hand. Finishing stacks are read from the table;
// a player no longer seated finished with nothing.
func Build(room string, deal Deal, t *game.Table) *HandHistory {
	n := len(deal.Players)
	rules := t.Rules()

	h := &HandHistory{
		Variant:           Variant,
		Table:             room,
		SeatCount:         rules.MaxSeats,
		Seats:             make([]int, n),
		Antes:             make([]int, n),
		BlindsOrStraddles: make([]int, n),
		MinBet:            rules.BigBlind,
		StartingStacks:    make([]int, n),
		FinishingStacks:   make([]int, n),
		Winnings:          make([]int, n),
		Actions:           make([]string, 0, n+16),
		Players:           make([]string, n),
		HandID:            fmt.Sprintf("%s-%d", room, deal.HandNumber),
		HandNumber:        deal.HandNumber,
	}
	setTime(h, deal.At)

	pos := make(map[string]int, n)
	for i, p := range deal.Players {
		pos[p.ID] = i
		h.Seats[i] = p.Seat + 1
		h.Players[i] = p.Name
		h.StartingStacks[i] = p.Stack
		if cur := t.Player(p.ID); cur != nil {
			h.FinishingStacks[i] = cur.Chips
		}
		h.Actions = append(h.Actions, fmt.Sprintf("d dh p%d %s", i+1, Cards(p.Cards)))
	}

	var (
		board     int
		streetBet int
		folded    = make(map[string]bool)
		boards    []string
		insurance []string
		rake, fee int
	)
	for _, e := range t.Log.HandEntries(deal.HandNumber) {
		i, seated := pos[e.PlayerID]
		who := fmt.Sprintf("p%d", i+1)
		switch e.Type {
		case game.EntryBlind:
			if seated {
				h.BlindsOrStraddles[i] += e.Amount
			}
			streetBet = max(streetBet, e.Amount)
		case game.EntryFold:
			folded[e.PlayerID] = true
			h.Actions = append(h.Actions, who+" f")
		case game.EntryCheck, game.EntryCall:
			h.Actions = append(h.Actions, who+" cc")
		case game.EntryRaise:
			streetBet = e.Amount
			h.Actions = append(h.Actions, fmt.Sprintf("%s cbr %d", who, e.Amount))
		case game.EntryAllIn:
			if e.Amount > streetBet {
				streetBet = e.Amount
				h.Actions = append(h.Actions, fmt.Sprintf("%s cbr %d", who, e.Amount))
			} else {
				h.Actions = append(h.Actions, who+" cc")
			}
		case game.EntryTimeout:
			if e.Action == game.Fold.String() {
				folded[e.PlayerID] = true
				h.Actions = append(h.Actions, who+" f")
			} else {
				h.Actions = append(h.Actions, who+" cc")
			}
		case game.EntryStreet:
			if len(e.Board) > board {
				h.Actions = append(h.Actions, "d db "+Cards(e.Board[board:]))
				board = len(e.Board)
			}
			streetBet = 0
		case game.EntryRunItTwiceBoard:
			boards = append(boards, Cards(e.Board))
		case game.EntryWin:
			if seated {
				h.Winnings[i] += e.Amount
			}
		case game.EntryRake:
			rake += e.Amount
		case game.EntryRunItTwiceFee:
			fee += e.Amount
		case game.EntryInsurance:
			insurance = append(insurance, fmt.Sprintf("%s %s %d", who, e.Note, e.Amount))
		}
	}

	var live []int
	for i, p := range deal.Players {
		if !folded[p.ID] {
			live = append(live, i)
		}
	}
	if len(live) > 1 {
		for _, i := range live {
			h.Actions = append(h.Actions, fmt.Sprintf("p%d sm %s", i+1, Cards(deal.Players[i].Cards)))
		}
	}

	meta := map[string]any{}
	if len(boards) > 0 {
		meta["run_it_twice_boards"] = boards
	}
	if rake > 0 {
		meta["rake"] = rake
	}
	if fee > 0 {
		meta["run_it_twice_fee"] = fee
	}
	if len(insurance) > 0 {
		meta["insurance"] = insurance
	}
	if len(meta) > 0 {
		h.Metadata = meta
	}
	return h
}

func setTime(h *HandHistory, at time.Time) {
	if at.IsZero() {
		return
	}
	utc := at.UTC()
	h.Time = utc.Format("15:04:05")
	h.TimeZone = "UTC"
	h.Day = utc.Day()
	h.Month = int(utc.Month())
	h.Year = utc.Year()
}
