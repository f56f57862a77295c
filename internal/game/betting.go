package game

import (
	"fmt"
	"strings"
)

// State is the phase of the table
type State int

const (
	Waiting State = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

func (s State) String() string {
	return [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown"}[s]
}

// Betting reports whether the state is a betting street
func (s State) Betting() bool {
	return s >= Preflop && s <= River
}

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	AllIn
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "raise", "allin"}[a]
}

// ParseAction converts the wire name of an action
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise", "bet":
		return Raise, nil
	case "allin", "all-in", "all_in":
		return AllIn, nil
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, s)
}

// Act applies a betting decision for the player whose turn it is.
// For Raise, amount is the total the player raises to.
func (t *Table) Act(playerID string, action Action, amount int) error {
	p, err := t.actor(playerID)
	if err != nil {
		return err
	}
	if err := t.apply(p, action, amount, true); err != nil {
		return err
	}
	t.progress()
	return nil
}

// Timeout resolves the current player's expired turn: a check when legal,
// otherwise a fold. Only a timeout entry is logged.
func (t *Table) Timeout(playerID string) (Action, error) {
	p, err := t.actor(playerID)
	if err != nil {
		return 0, err
	}
	action := Fold
	if p.Bet == t.CurrentBet {
		action = Check
	}
	t.logEntry(LogEntry{Type: EntryTimeout, PlayerID: p.ID, Name: p.Name, Action: action.String()})
	if err := t.apply(p, action, 0, false); err != nil {
		return 0, err
	}
	t.progress()
	return action, nil
}

func (t *Table) actor(playerID string) (*Player, error) {
	if !t.State.Betting() {
		return nil, ErrHandNotActive
	}
	cur := t.CurrentPlayer()
	if cur == nil || cur.ID != playerID {
		if t.Player(playerID) == nil {
			return nil, ErrPlayerNotFound
		}
		return nil, ErrNotYourTurn
	}
	return cur, nil
}

// apply validates and commits one action without advancing the turn
func (t *Table) apply(p *Player, action Action, amount int, logIt bool) error {
	entry := LogEntry{PlayerID: p.ID, Name: p.Name}

	switch action {
	case Fold:
		p.Folded = true
		entry.Type = EntryFold

	case Check:
		if p.Bet != t.CurrentBet {
			return fmt.Errorf("%w: cannot check facing a bet of %d", ErrIllegalAction, t.CurrentBet)
		}
		entry.Type = EntryCheck

	case Call:
		owed := t.CurrentBet - p.Bet
		if owed <= 0 {
			entry.Type = EntryCheck
			break
		}
		paid := min(owed, p.Chips)
		t.commit(p, paid)
		entry.Type = EntryCall
		entry.Amount = paid
		if p.AllIn {
			entry.Type = EntryAllIn
			entry.Amount = p.Bet
		}

	case Raise:
		stack := p.Bet + p.Chips
		if amount > stack {
			return fmt.Errorf("%w: raise to %d exceeds stack of %d", ErrInsufficientChips, amount, stack)
		}
		if amount == stack {
			return t.apply(p, AllIn, 0, logIt)
		}
		if p.acted {
			return fmt.Errorf("%w: betting was not reopened", ErrIllegalAction)
		}
		if amount <= t.CurrentBet || amount < t.CurrentBet+t.MinRaise {
			return fmt.Errorf("%w: minimum raise is to %d", ErrRaiseTooSmall, t.CurrentBet+t.MinRaise)
		}
		t.commit(p, amount-p.Bet)
		t.MinRaise = amount - t.CurrentBet
		t.CurrentBet = amount
		t.reopen(p)
		entry.Type = EntryRaise
		entry.Amount = amount

	case AllIn:
		if p.Chips == 0 {
			return fmt.Errorf("%w: no chips behind", ErrIllegalAction)
		}
		total := p.Bet + p.Chips
		if total > t.CurrentBet {
			if p.acted {
				return fmt.Errorf("%w: betting was not reopened, call or fold", ErrIllegalAction)
			}
			if delta := total - t.CurrentBet; delta >= t.MinRaise {
				t.MinRaise = delta
				t.reopen(p)
			}
			t.CurrentBet = total
		}
		t.commit(p, p.Chips)
		entry.Type = EntryAllIn
		entry.Amount = total

	default:
		return fmt.Errorf("%w: %d", ErrIllegalAction, action)
	}

	p.acted = true
	if logIt {
		t.logEntry(entry)
	}
	return nil
}

func (t *Table) commit(p *Player, amount int) {
	p.commit(amount)
	t.Pot += amount
}

// reopen gives everyone but the raiser a fresh decision after a full raise
func (t *Table) reopen(raiser *Player) {
	for _, p := range t.Players {
		if p != raiser {
			p.acted = false
		}
	}
}

// needsToAct returns true if the player still owes a decision this street
func (t *Table) needsToAct(p *Player) bool {
	return p.canAct() && (!p.acted || p.Bet < t.CurrentBet)
}

// bettingClosed reports whether the current street is finished
func (t *Table) bettingClosed() bool {
	var actors []*Player
	for _, p := range t.Players {
		if p.canAct() {
			actors = append(actors, p)
		}
	}
	switch len(actors) {
	case 0:
		return true
	case 1:
		// everyone else is all-in; nothing above the biggest all-in can be called
		return actors[0].Bet >= t.topLiveBet(actors[0])
	}
	for _, p := range actors {
		if t.needsToAct(p) {
			return false
		}
	}
	return true
}

// topLiveBet is the largest street bet among live players other than p
func (t *Table) topLiveBet(p *Player) int {
	top := 0
	for _, o := range t.Players {
		if o != p && o.live() {
			top = max(top, o.Bet)
		}
	}
	return top
}

// nextToAct returns the index of the first player clockwise after from that
// still owes a decision, or -1.
func (t *Table) nextToAct(from int) int {
	n := len(t.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i + n) % n
		if t.needsToAct(t.Players[idx]) {
			return idx
		}
	}
	return -1
}

// progress moves the hand forward after a mutation
func (t *Table) progress() {
	if !t.State.Betting() {
		return
	}
	if t.liveCount() <= 1 {
		t.finishUncontested()
		return
	}
	if !t.bettingClosed() {
		t.CurrentPlayerIndex = t.nextToAct(t.CurrentPlayerIndex)
		return
	}
	t.closeStreet()
}

// closeStreet returns uncalled chips and deals the next street, running the
// board out when no more betting is possible.
func (t *Table) closeStreet() {
	t.returnUncalled()
	for _, p := range t.Players {
		p.Bet = 0
		p.acted = false
	}
	t.CurrentBet = 0
	t.MinRaise = t.rules.BigBlind
	t.CurrentPlayerIndex = -1

	if t.State == River {
		t.showdown(t.Board)
		return
	}
	if t.actorCount() <= 1 {
		t.runout()
		return
	}
	if err := t.dealStreet(&t.Board, true); err != nil {
		t.fail(err)
		return
	}
	t.State++
	t.CurrentPlayerIndex = t.nextToAct(t.DealerIndex)
}

// returnUncalled gives the largest contributor back whatever nobody else
// could match. A player who folded a forced bet nobody could call gets the
// excess back too; chips of players who left stay in the pot.
func (t *Table) returnUncalled() {
	var top *Player
	second := 0
	for _, p := range t.Players {
		if !p.inHand {
			continue
		}
		if top == nil || p.TotalBet > top.TotalBet {
			if top != nil {
				second = max(second, top.TotalBet)
			}
			top = p
		} else {
			second = max(second, p.TotalBet)
		}
	}
	if top == nil || top.left || top.TotalBet <= second {
		return
	}
	refund := top.TotalBet - second
	top.Chips += refund
	top.TotalBet -= refund
	top.Bet = max(0, top.Bet-refund)
	t.Pot -= refund
	if top.Chips > 0 {
		top.AllIn = false
	}
}

// ValidActions lists what the player may do right now
func (t *Table) ValidActions(playerID string) []Action {
	cur := t.CurrentPlayer()
	if !t.State.Betting() || cur == nil || cur.ID != playerID {
		return nil
	}
	p := cur
	actions := []Action{Fold}
	if p.Bet == t.CurrentBet {
		actions = append(actions, Check)
	} else {
		actions = append(actions, Call)
	}
	stack := p.Bet + p.Chips
	if !p.acted && stack >= t.CurrentBet+t.MinRaise && stack > t.CurrentBet {
		actions = append(actions, Raise)
	}
	if p.Chips > 0 && (stack <= t.CurrentBet || !p.acted) {
		actions = append(actions, AllIn)
	}
	return actions
}

// ToCall returns the chips the player needs to call, capped by their stack
func (t *Table) ToCall(p *Player) int {
	return max(0, min(t.CurrentBet-p.Bet, p.Chips))
}

// RaiseBounds returns the smallest and largest raise-to totals for the player
func (t *Table) RaiseBounds(p *Player) (minTo, maxTo int) {
	stack := p.Bet + p.Chips
	return min(t.CurrentBet+t.MinRaise, stack), stack
}

func (t *Table) liveCount() int {
	n := 0
	for _, p := range t.Players {
		if p.live() {
			n++
		}
	}
	return n
}

func (t *Table) actorCount() int {
	n := 0
	for _, p := range t.Players {
		if p.canAct() {
			n++
		}
	}
	return n
}
