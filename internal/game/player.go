package game

import "github.com/rishabpremish/Card-Games-sub000/internal/deck"

// Player is a seated player. Only the owning table mutates it.
type Player struct {
	ID        string
	Name      string
	UserID    string
	Chips     int
	Bet       int // Current bet on this street
	TotalBet  int // Total committed this hand
	Folded    bool
	AllIn     bool
	Connected bool
	SeatIndex int
	Cards     []deck.Card

	AutoInsurance   bool
	RunItTwiceOptIn bool

	inHand bool // dealt into the current hand
	left   bool // left mid-hand, removed when the hand finishes
	acted  bool // acted since the last full raise
}

// InHand reports whether the player was dealt into the current hand
func (p *Player) InHand() bool { return p.inHand }

// Left reports whether the player left during the current hand
func (p *Player) Left() bool { return p.left }

// canAct returns true if the player can still make betting decisions
func (p *Player) canAct() bool {
	return p.inHand && !p.Folded && !p.AllIn
}

// live returns true if the player is still contesting the pot
func (p *Player) live() bool {
	return p.inHand && !p.Folded
}

func (p *Player) commit(amount int) {
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.AllIn = true
	}
}
