package deck

import (
	"errors"
	"math/rand/v2"
)

// ErrDeckExhausted is returned when more cards are requested than remain
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck represents a standard 52-card deck
type Deck struct {
	cards [52]Card
	next  int
}

// Full returns the 52 cards in a fixed order (suit-major)
func Full() []Card {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// New creates an unshuffled deck
func New() *Deck {
	d := &Deck{}
	copy(d.cards[:], Full())
	return d
}

// NewShuffled creates a deck shuffled with the given RNG
func NewShuffled(rng *rand.Rand) *Deck {
	d := New()
	d.Shuffle(rng)
	return d
}

// Shuffle resets the deck and shuffles it using Fisher-Yates
func (d *Deck) Shuffle(rng *rand.Rand) {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal deals n cards from the top of the deck
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || d.next+n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// Burn discards the top card
func (d *Deck) Burn() error {
	_, err := d.Deal(1)
	return err
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

// Undealt returns a copy of the cards not yet dealt, in deck order
func (d *Deck) Undealt() []Card {
	out := make([]Card, len(d.cards)-d.next)
	copy(out, d.cards[d.next:])
	return out
}

// Stack places the given cards on top of the deck in order, keeping the rest
// of the deck intact. Used to build deterministic scenarios in tests.
func (d *Deck) Stack(top []Card) {
	d.next = 0
	rest := make([]Card, 0, len(d.cards))
	used := make(map[Card]bool, len(top))
	for _, c := range top {
		used[c] = true
	}
	for _, c := range d.cards {
		if !used[c] {
			rest = append(rest, c)
		}
	}
	i := copy(d.cards[:], top)
	copy(d.cards[i:], rest)
}
