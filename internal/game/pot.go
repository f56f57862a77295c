package game

import "slices"

// Contribution is what one player put into the pot this hand
type Contribution struct {
	PlayerID string
	Amount   int
	Folded   bool
}

// Pot represents a pot (main or side)
type Pot struct {
	Amount   int      `json:"amount"`
	Eligible []string `json:"eligible"` // player IDs that can win this pot
}

// BuildPots splits contributions into a main pot followed by side pots.
// Each pot covers one contribution tier of the players still in the hand and
// is eligible to those who contributed at least that tier. If a single live
// player contributed more than anyone else, the excess was never called and
// is returned to them instead of forming a pot.
func BuildPots(contribs []Contribution) (pots []Pot, refundTo string, refund int) {
	amounts := make([]int, len(contribs))
	for i, c := range contribs {
		amounts[i] = c.Amount
	}

	top, second := -1, 0
	for i, c := range contribs {
		if top == -1 || c.Amount > contribs[top].Amount {
			top = i
		}
	}
	if top >= 0 {
		for i, c := range contribs {
			if i != top && c.Amount > second {
				second = c.Amount
			}
		}
		if !contribs[top].Folded && contribs[top].Amount > second {
			refund = contribs[top].Amount - second
			refundTo = contribs[top].PlayerID
			amounts[top] -= refund
		}
	}

	var tiers []int
	for i, c := range contribs {
		if !c.Folded && amounts[i] > 0 && !slices.Contains(tiers, amounts[i]) {
			tiers = append(tiers, amounts[i])
		}
	}
	slices.Sort(tiers)

	prev := 0
	for _, level := range tiers {
		pot := Pot{}
		for i, c := range contribs {
			pot.Amount += min(amounts[i], level) - min(amounts[i], prev)
			if !c.Folded && amounts[i] >= level {
				pot.Eligible = append(pot.Eligible, c.PlayerID)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// folded players can have put in more than any live player
	dead := 0
	for i := range contribs {
		if amounts[i] > prev {
			dead += amounts[i] - prev
		}
	}
	if dead > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += dead
	}
	return pots, refundTo, refund
}

// Total returns the combined amount of the pots
func Total(pots []Pot) int {
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	return total
}

// takeFromPots removes amount from the pots in order, main pot first
func takeFromPots(pots []Pot, amount int) int {
	taken := 0
	for i := range pots {
		if amount == 0 {
			break
		}
		n := min(pots[i].Amount, amount)
		pots[i].Amount -= n
		amount -= n
		taken += n
	}
	return taken
}
