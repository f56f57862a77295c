package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/coder/quartz"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/evaluator"
)

// Winner is one player's share of the pots at the end of a hand.
// Hand is nil when the pot was won uncontested.
type Winner struct {
	PlayerID string               `json:"playerId"`
	Name     string               `json:"name"`
	Amount   int                  `json:"amount"`
	Hand     *evaluator.HandValue `json:"hand"`
}

// Table owns the seats and the hand in progress. It is not safe for
// concurrent use; the room actor serialises access.
type Table struct {
	Players            []*Player // seat order
	State              State
	Board              []deck.Card
	SecondBoard        []deck.Card
	Pot                int
	CurrentBet         int
	MinRaise           int
	DealerIndex        int
	CurrentPlayerIndex int
	Winners            []Winner
	HandNumber         int
	Log                *ActionLog

	rules Rules
	rng   *rand.Rand
	clock quartz.Clock
	deck  *deck.Deck

	stacked   []deck.Card
	flopDealt bool
	bank      int // chips that should be in front of players
	houseNet  int // rake, fees and premiums less insurance payouts
	lastErr   error
}

// Option configures a Table
type Option func(*Table)

// WithClock sets the clock used to timestamp log entries
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) {
		t.clock = clock
	}
}

// NewTable creates an empty table
func NewTable(rng *rand.Rand, rules Rules, opts ...Option) *Table {
	t := &Table{
		State:              Waiting,
		CurrentPlayerIndex: -1,
		MinRaise:           rules.BigBlind,
		Log:                NewActionLog(rules.LogLimit),
		rules:              rules,
		rng:                rng,
		clock:              quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rules returns the table's rules
func (t *Table) Rules() Rules { return t.rules }

// HouseNet returns what the house has taken net of insurance payouts
func (t *Table) HouseNet() int { return t.houseNet }

// StackNextDeck places cards on top of the next hand's deck. Hole cards are
// dealt one at a time starting left of the dealer, and a card is burned
// before each street.
func (t *Table) StackNextDeck(cards []deck.Card) {
	t.stacked = slices.Clone(cards)
}

// Player returns the player with the given id, or nil
func (t *Table) Player(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) indexOf(id string) int {
	return slices.IndexFunc(t.Players, func(p *Player) bool { return p.ID == id })
}

// CurrentPlayer returns the player to act, or nil
func (t *Table) CurrentPlayer() *Player {
	if t.CurrentPlayerIndex < 0 || t.CurrentPlayerIndex >= len(t.Players) {
		return nil
	}
	return t.Players[t.CurrentPlayerIndex]
}

// Dealer returns the player holding the button, or nil
func (t *Table) Dealer() *Player {
	if t.DealerIndex < 0 || t.DealerIndex >= len(t.Players) {
		return nil
	}
	return t.Players[t.DealerIndex]
}

// AddPlayer seats a player in the lowest free seat
func (t *Table) AddPlayer(p *Player) error {
	if t.Player(p.ID) != nil {
		return ErrDuplicatePlayer
	}
	if len(t.Players) >= t.rules.MaxSeats {
		return ErrTableFull
	}
	if p.Chips < 0 {
		return fmt.Errorf("%w: negative stack", ErrInsufficientChips)
	}
	seat := 0
	for slices.ContainsFunc(t.Players, func(o *Player) bool { return o.SeatIndex == seat }) {
		seat++
	}
	p.SeatIndex = seat
	p.Bet, p.TotalBet = 0, 0
	p.Folded, p.AllIn = false, false
	p.Cards = nil
	p.inHand, p.left, p.acted = false, false, false

	idx, _ := slices.BinarySearchFunc(t.Players, seat, func(o *Player, s int) int { return o.SeatIndex - s })
	t.Players = slices.Insert(t.Players, idx, p)
	if len(t.Players) > 1 {
		if idx <= t.DealerIndex {
			t.DealerIndex++
		}
		if t.CurrentPlayerIndex >= 0 && idx <= t.CurrentPlayerIndex {
			t.CurrentPlayerIndex++
		}
	}
	t.bank += p.Chips
	return nil
}

// RemovePlayer takes a player off the table and returns the chips they cash
// out with. During a hand the player folds immediately and the seat is freed
// when the hand finishes.
func (t *Table) RemovePlayer(id string) (int, error) {
	idx := t.indexOf(id)
	if idx < 0 {
		return 0, ErrPlayerNotFound
	}
	p := t.Players[idx]
	if p.left {
		return 0, ErrPlayerNotFound
	}

	cashOut := p.Chips
	t.bank -= cashOut

	if t.State.Betting() && p.inHand {
		wasCurrent := idx == t.CurrentPlayerIndex
		p.Chips = 0
		p.left = true
		if !p.Folded {
			p.Folded = true
			t.logEntry(LogEntry{Type: EntryFold, PlayerID: p.ID, Name: p.Name, Note: "left"})
		}
		if t.liveCount() <= 1 {
			t.finishUncontested()
		} else if wasCurrent || t.bettingClosed() {
			t.progress()
		}
		return cashOut, nil
	}

	p.Chips = 0
	t.removeAt(idx)
	return cashOut, nil
}

// removeAt deletes a seat and keeps the dealer and actor indices pointing at
// the same players
func (t *Table) removeAt(idx int) {
	t.Players = slices.Delete(t.Players, idx, idx+1)
	switch {
	case len(t.Players) == 0:
		t.DealerIndex = 0
	case idx < t.DealerIndex:
		t.DealerIndex--
	case idx == t.DealerIndex && t.DealerIndex >= len(t.Players):
		t.DealerIndex = 0
	}
	switch {
	case t.CurrentPlayerIndex == idx:
		t.CurrentPlayerIndex = -1
	case idx < t.CurrentPlayerIndex:
		t.CurrentPlayerIndex--
	}
}

// SetConnected records whether the player's session is attached
func (t *Table) SetConnected(id string, connected bool) error {
	p := t.Player(id)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Connected = connected
	return nil
}

// SetOptions updates the player's insurance and run it twice preferences.
// Nil leaves a setting unchanged.
func (t *Table) SetOptions(id string, autoInsurance, runItTwice *bool) error {
	p := t.Player(id)
	if p == nil {
		return ErrPlayerNotFound
	}
	if autoInsurance != nil {
		p.AutoInsurance = *autoInsurance
	}
	if runItTwice != nil {
		p.RunItTwiceOptIn = *runItTwice
	}
	return nil
}

// FundedPlayers counts seated players with chips who are staying
func (t *Table) FundedPlayers() int {
	n := 0
	for _, p := range t.Players {
		if p.Chips > 0 && !p.left {
			n++
		}
	}
	return n
}

// StartHand shuffles, posts blinds, deals hole cards and opens preflop
// betting. Players without chips sit the hand out.
func (t *Table) StartHand() error {
	if t.State.Betting() {
		return ErrHandInProgress
	}
	if t.FundedPlayers() < 2 {
		return ErrNotEnoughPlayers
	}

	t.HandNumber++
	t.Board, t.SecondBoard = nil, nil
	t.Pot, t.CurrentBet, t.MinRaise = 0, 0, t.rules.BigBlind
	t.Winners = nil
	t.flopDealt = false
	for _, p := range t.Players {
		p.Bet, p.TotalBet = 0, 0
		p.Folded, p.AllIn = false, false
		p.Cards = nil
		p.acted = false
		p.inHand = p.Chips > 0 && !p.left
	}

	if t.DealerIndex >= len(t.Players) || !t.Players[t.DealerIndex].inHand {
		t.DealerIndex = t.nextInHand(t.DealerIndex)
	}

	t.deck = deck.NewShuffled(t.rng)
	if len(t.stacked) > 0 {
		t.deck.Stack(t.stacked)
		t.stacked = nil
	}

	dealt := t.dealtOrder()
	sb, bb := dealt[0], dealt[1]
	if len(dealt) == 2 {
		sb, bb = t.Players[t.DealerIndex], dealt[0]
	}
	t.State = Preflop
	t.postBlind(sb, t.rules.SmallBlind)
	t.postBlind(bb, t.rules.BigBlind)
	t.CurrentBet = t.rules.BigBlind

	for round := 0; round < 2; round++ {
		for _, p := range dealt {
			cards, err := t.deck.Deal(1)
			if err != nil {
				t.fail(err)
				return err
			}
			p.Cards = append(p.Cards, cards...)
		}
	}

	t.CurrentPlayerIndex = t.nextToAct(t.indexOf(bb.ID))
	if t.bettingClosed() {
		t.closeStreet()
	}
	return nil
}

// dealtOrder returns the players in the hand clockwise starting left of the dealer
func (t *Table) dealtOrder() []*Player {
	n := len(t.Players)
	var out []*Player
	for i := 1; i <= n; i++ {
		p := t.Players[(t.DealerIndex+i)%n]
		if p.inHand {
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) nextInHand(from int) int {
	n := len(t.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if t.Players[idx].inHand {
			return idx
		}
	}
	return 0
}

func (t *Table) postBlind(p *Player, amount int) {
	paid := min(amount, p.Chips)
	t.commit(p, paid)
	t.logEntry(LogEntry{Type: EntryBlind, PlayerID: p.ID, Name: p.Name, Amount: paid})
}

// dealStreet burns and deals the next street onto board. Board one also
// writes a street entry.
func (t *Table) dealStreet(board *[]deck.Card, logIt bool) error {
	n := 1
	if len(*board) == 0 {
		n = 3
	}
	if err := t.deck.Burn(); err != nil {
		return err
	}
	cards, err := t.deck.Deal(n)
	if err != nil {
		return err
	}
	*board = append(*board, cards...)
	if len(*board) >= 3 {
		t.flopDealt = true
	}
	if logIt {
		t.logEntry(LogEntry{
			Type:   EntryStreet,
			Street: streetName(len(*board)),
			Cards:  cards,
			Board:  slices.Clone(*board),
		})
	}
	return nil
}

func streetName(boardLen int) string {
	switch boardLen {
	case 3:
		return Flop.String()
	case 4:
		return Turn.String()
	case 5:
		return River.String()
	}
	return Preflop.String()
}

// finishHand rotates the button and frees the seats of players who left
func (t *Table) finishHand() {
	t.State = Showdown
	t.CurrentPlayerIndex = -1
	t.CurrentBet = 0
	for _, p := range t.Players {
		p.Bet = 0
		p.acted = false
	}

	next := ""
	n := len(t.Players)
	for i := 1; i <= n; i++ {
		p := t.Players[(t.DealerIndex+i)%n]
		if p.Chips > 0 && !p.left {
			next = p.ID
			break
		}
	}
	for i := len(t.Players) - 1; i >= 0; i-- {
		if t.Players[i].left {
			t.removeAt(i)
		}
	}
	if idx := t.indexOf(next); idx >= 0 {
		t.DealerIndex = idx
	}
}

// fail records an unrecoverable engine error; CheckInvariants reports it
func (t *Table) fail(err error) {
	if t.lastErr == nil {
		t.lastErr = err
	}
}

func (t *Table) logEntry(e LogEntry) {
	e.HandNumber = t.HandNumber
	e.Time = t.clock.Now()
	t.Log.Append(e)
}

// CheckInvariants verifies chip conservation and the bookkeeping of the
// hand in progress
func (t *Table) CheckInvariants() error {
	if t.lastErr != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, t.lastErr)
	}
	stacks, committed := 0, 0
	for _, p := range t.Players {
		if p.Chips < 0 || p.Bet < 0 || p.TotalBet < 0 {
			return fmt.Errorf("%w: negative amounts for %s", ErrInvariant, p.ID)
		}
		if p.Bet > p.TotalBet {
			return fmt.Errorf("%w: street bet exceeds hand total for %s", ErrInvariant, p.ID)
		}
		stacks += p.Chips
		committed += p.TotalBet
	}
	if t.State.Betting() {
		if committed != t.Pot {
			return fmt.Errorf("%w: pot %d but players committed %d", ErrInvariant, t.Pot, committed)
		}
		if stacks+t.Pot != t.bank {
			return fmt.Errorf("%w: %d in stacks and pot, expected %d", ErrInvariant, stacks+t.Pot, t.bank)
		}
		if cur := t.CurrentPlayer(); cur != nil && !cur.canAct() {
			return fmt.Errorf("%w: current player %s cannot act", ErrInvariant, cur.ID)
		}
		return nil
	}
	if stacks != t.bank {
		return fmt.Errorf("%w: %d in stacks, expected %d", ErrInvariant, stacks, t.bank)
	}
	return nil
}

// TotalChips returns the chips in front of players plus the pot in play
func (t *Table) TotalChips() int {
	total := 0
	for _, p := range t.Players {
		total += p.Chips
	}
	if t.State.Betting() {
		total += t.Pot
	}
	return total
}
