package game

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/evaluator"
)

// insurancePolicy is cover bought automatically on an all-in runout
type insurancePolicy struct {
	player   *Player
	equity   float64
	coverage int
	premium  int
}

// finishUncontested awards everything to the last player standing
func (t *Table) finishUncontested() {
	t.returnUncalled()
	var winner *Player
	for _, p := range t.Players {
		if p.live() {
			winner = p
			break
		}
	}
	if winner == nil {
		t.fail(fmt.Errorf("no live player to award pot of %d", t.Pot))
		t.finishHand()
		return
	}
	amount := t.Pot
	winner.Chips += amount
	t.Winners = []Winner{{PlayerID: winner.ID, Name: winner.Name, Amount: amount}}
	t.logEntry(LogEntry{Type: EntryWin, PlayerID: winner.ID, Name: winner.Name, Amount: amount, Note: "uncontested"})
	t.finishHand()
}

// runout deals the rest of the board once no more betting is possible
func (t *Table) runout() {
	policies := t.priceInsurance()

	twice := len(t.Board) < 5
	for _, p := range t.Players {
		if p.live() && !p.RunItTwiceOptIn {
			twice = false
		}
	}

	if !twice {
		for len(t.Board) < 5 {
			if err := t.dealStreet(&t.Board, true); err != nil {
				t.fail(err)
				t.finishHand()
				return
			}
		}
		t.settle(policies, t.Board)
		return
	}

	t.SecondBoard = slices.Clone(t.Board)
	for len(t.Board) < 5 {
		if err := t.dealStreet(&t.Board, true); err != nil {
			t.fail(err)
			t.finishHand()
			return
		}
	}
	for len(t.SecondBoard) < 5 {
		if err := t.dealStreet(&t.SecondBoard, false); err != nil {
			t.fail(err)
			t.finishHand()
			return
		}
	}
	t.logEntry(LogEntry{Type: EntryRunItTwiceBoard, Board: slices.Clone(t.Board), Note: "board 1"})
	t.logEntry(LogEntry{Type: EntryRunItTwiceBoard, Board: slices.Clone(t.SecondBoard), Note: "board 2"})
	t.settle(policies, t.Board, t.SecondBoard)
}

// priceInsurance quotes cover for all-in players who opted in and are behind
func (t *Table) priceInsurance() []insurancePolicy {
	if t.rules.InsuranceCoveragePct == 0 || len(t.Board) >= 5 {
		return nil
	}
	wanted := false
	var live []*Player
	var hands, dead [][]deck.Card
	for _, p := range t.Players {
		if !p.inHand {
			continue
		}
		if !p.live() {
			dead = append(dead, p.Cards)
			continue
		}
		live = append(live, p)
		hands = append(hands, p.Cards)
		if p.AutoInsurance && p.AllIn {
			wanted = true
		}
	}
	if !wanted || len(live) < 2 {
		return nil
	}

	equity, err := evaluator.Equity(context.Background(), hands, t.Board, slices.Concat(dead...), t.rules.EquitySamples, t.rng)
	if err != nil {
		t.fail(err)
		return nil
	}

	var policies []insurancePolicy
	for i, p := range live {
		e := equity[i]
		if !p.AutoInsurance || !p.AllIn || e <= 0 || e >= 0.5 {
			continue
		}
		coverage := p.TotalBet * t.rules.InsuranceCoveragePct / 100
		if coverage == 0 {
			continue
		}
		premium := int(math.Ceil(float64(coverage) * (1 - e) / e))
		policies = append(policies, insurancePolicy{player: p, equity: e, coverage: coverage, premium: premium})
	}
	return policies
}

// showdown settles a hand that reached the river with betting closed
func (t *Table) showdown(boards ...[]deck.Card) {
	t.settle(nil, boards...)
}

// settle builds the pots, takes rake and fees, awards each pot on every
// board and settles insurance
func (t *Table) settle(policies []insurancePolicy, boards ...[]deck.Card) {
	t.State = Showdown
	t.CurrentPlayerIndex = -1

	contribs := make([]Contribution, 0, len(t.Players))
	for _, p := range t.Players {
		if p.inHand && p.TotalBet > 0 {
			contribs = append(contribs, Contribution{PlayerID: p.ID, Amount: p.TotalBet, Folded: p.Folded})
		}
	}
	pots, refundTo, refund := BuildPots(contribs)
	if refund > 0 {
		t.Player(refundTo).Chips += refund
	}

	contested := Total(pots)
	if t.flopDealt && t.rules.RakeBasisPoints > 0 {
		rake := contested * t.rules.RakeBasisPoints / 10000
		if t.rules.RakeCap > 0 {
			rake = min(rake, t.rules.RakeCap)
		}
		if rake = takeFromPots(pots, rake); rake > 0 {
			t.houseNet += rake
			t.bank -= rake
			t.logEntry(LogEntry{Type: EntryRake, Amount: rake})
		}
	}
	if len(boards) > 1 && t.rules.RunItTwiceFeeBasisPoints > 0 {
		fee := takeFromPots(pots, contested*t.rules.RunItTwiceFeeBasisPoints/10000)
		if fee > 0 {
			t.houseNet += fee
			t.bank -= fee
			t.logEntry(LogEntry{Type: EntryRunItTwiceFee, Amount: fee})
		}
	}

	values := make([]map[string]evaluator.HandValue, len(boards))
	for b, board := range boards {
		values[b] = make(map[string]evaluator.HandValue)
		for _, p := range t.Players {
			if !p.live() {
				continue
			}
			v, err := evaluator.Evaluate(slices.Concat(p.Cards, board))
			if err != nil {
				t.fail(err)
				continue
			}
			values[b][p.ID] = v
		}
	}

	payouts := make(map[string]int)
	winningHand := make(map[string]evaluator.HandValue)
	for _, pot := range pots {
		shares := []int{pot.Amount}
		if len(boards) > 1 {
			shares = []int{(pot.Amount + 1) / 2, pot.Amount / 2}
		}
		for b, share := range shares {
			for id, won := range t.splitPot(share, pot.Eligible, values[b]) {
				payouts[id] += won
				if _, ok := winningHand[id]; !ok {
					winningHand[id] = values[b][id]
				}
			}
		}
	}

	t.Winners = nil
	for _, p := range t.clockwiseFromButton() {
		amount, ok := payouts[p.ID]
		if !ok {
			continue
		}
		p.Chips += amount
		hand := winningHand[p.ID]
		t.Winners = append(t.Winners, Winner{PlayerID: p.ID, Name: p.Name, Amount: amount, Hand: &hand})
		t.logEntry(LogEntry{Type: EntryWin, PlayerID: p.ID, Name: p.Name, Amount: amount, Cards: slices.Clone(p.Cards), Hand: &hand})
	}

	for _, pol := range policies {
		p := pol.player
		won := payouts[p.ID]
		if won == 0 {
			p.Chips += pol.coverage
			t.houseNet -= pol.coverage
			t.bank += pol.coverage
			t.logEntry(LogEntry{
				Type: EntryInsurance, PlayerID: p.ID, Name: p.Name, Amount: pol.coverage,
				Note: fmt.Sprintf("payout, equity %.1f%%", pol.equity*100),
			})
			continue
		}
		charge := min(pol.premium, won)
		p.Chips -= charge
		t.houseNet += charge
		t.bank -= charge
		t.logEntry(LogEntry{
			Type: EntryInsurance, PlayerID: p.ID, Name: p.Name, Amount: charge,
			Note: fmt.Sprintf("premium, equity %.1f%%", pol.equity*100),
		})
	}

	t.finishHand()
}

// splitPot divides amount among the best eligible hands; odd chips go to the
// first winner clockwise from the button
func (t *Table) splitPot(amount int, eligible []string, values map[string]evaluator.HandValue) map[string]int {
	var best evaluator.HandValue
	var winners []*Player
	for _, p := range t.clockwiseFromButton() {
		if !slices.Contains(eligible, p.ID) {
			continue
		}
		v, ok := values[p.ID]
		if !ok {
			continue
		}
		switch c := evaluator.Compare(v, best); {
		case len(winners) == 0 || c > 0:
			best = v
			winners = []*Player{p}
		case c == 0:
			winners = append(winners, p)
		}
	}
	out := make(map[string]int, len(winners))
	if len(winners) == 0 || amount == 0 {
		return out
	}
	each := amount / len(winners)
	for _, w := range winners {
		out[w.ID] = each
	}
	out[winners[0].ID] += amount - each*len(winners)
	return out
}

// clockwiseFromButton orders players starting with the seat left of the dealer
func (t *Table) clockwiseFromButton() []*Player {
	n := len(t.Players)
	out := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, t.Players[(t.DealerIndex+i)%n])
	}
	return out
}
