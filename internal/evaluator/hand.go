package evaluator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
)

// ErrInvalidHand is returned for fewer than 5, more than 7, or duplicate cards
var ErrInvalidHand = errors.New("invalid hand")

// HandValue is the evaluated strength of the best five card hand.
// HighCards holds the tie-break ranks in significance order.
type HandValue struct {
	Rank      HandRank `json:"rank"`
	Name      string   `json:"name"`
	HighCards []int    `json:"highCards"`
}

// String returns a string representation of the hand
func (h HandValue) String() string {
	parts := make([]string, len(h.HighCards))
	for i, r := range h.HighCards {
		parts[i] = deck.Rank(r).String()
	}
	return fmt.Sprintf("%s [%s]", h.Name, strings.Join(parts, " "))
}

// Compare returns -1 if a is weaker than b, 0 if equal, 1 if a is stronger
func Compare(a, b HandValue) int {
	if a.Rank != b.Rank {
		if a.Rank < b.Rank {
			return -1
		}
		return 1
	}
	return slices.Compare(a.HighCards, b.HighCards)
}

// Evaluate finds the best five card hand among 5 to 7 cards
func Evaluate(cards []deck.Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("%w: %d cards", ErrInvalidHand, len(cards))
	}
	var seen uint64
	for _, c := range cards {
		if !c.Valid() {
			return HandValue{}, fmt.Errorf("%w: bad card %v", ErrInvalidHand, c)
		}
		bit := uint64(1) << c.Index()
		if seen&bit != 0 {
			return HandValue{}, fmt.Errorf("%w: duplicate %v", ErrInvalidHand, c)
		}
		seen |= bit
	}
	return evaluateBest(cards), nil
}

// evaluateBest assumes the cards were validated
func evaluateBest(cards []deck.Card) HandValue {
	var best HandValue
	var hand [5]deck.Card
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						hand = [5]deck.Card{cards[a], cards[b], cards[c], cards[d], cards[e]}
						v := evaluate5(hand)
						if best.Rank == 0 || Compare(v, best) > 0 {
							best = v
						}
					}
				}
			}
		}
	}
	return best
}

func evaluate5(hand [5]deck.Card) HandValue {
	var counts [15]int
	flush := true
	for i, c := range hand {
		counts[c.Rank]++
		if i > 0 && c.Suit != hand[0].Suit {
			flush = false
		}
	}

	// a high of 5 checks the wheel, with the ace counted as 1
	straightHigh := 0
	for high := 14; high >= 5; high-- {
		run := true
		for r := high; r > high-5; r-- {
			rank := r
			if rank == 1 {
				rank = 14
			}
			if counts[rank] != 1 {
				run = false
				break
			}
		}
		if run {
			straightHigh = high
			break
		}
	}

	// group ranks by multiplicity, highest count then highest rank first
	var groups [][2]int
	for r := 14; r >= 2; r-- {
		if counts[r] > 0 {
			groups = append(groups, [2]int{counts[r], r})
		}
	}
	slices.SortStableFunc(groups, func(x, y [2]int) int {
		return y[0] - x[0]
	})
	ranks := make([]int, len(groups))
	for i, g := range groups {
		ranks[i] = g[1]
	}

	switch {
	case flush && straightHigh == 14:
		return value(RoyalFlush, []int{14})
	case flush && straightHigh > 0:
		return value(StraightFlush, []int{straightHigh})
	case groups[0][0] == 4:
		return value(FourOfAKind, ranks)
	case groups[0][0] == 3 && groups[1][0] == 2:
		return value(FullHouse, ranks)
	case flush:
		return value(Flush, ranks)
	case straightHigh > 0:
		return value(Straight, []int{straightHigh})
	case groups[0][0] == 3:
		return value(ThreeOfAKind, ranks)
	case groups[0][0] == 2 && groups[1][0] == 2:
		return value(TwoPair, ranks)
	case groups[0][0] == 2:
		return value(Pair, ranks)
	default:
		return value(HighCard, ranks)
	}
}

func value(rank HandRank, high []int) HandValue {
	return HandValue{Rank: rank, Name: rank.String(), HighCards: high}
}
