package deck

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣"}

// String returns the symbol used on the wire (e.g. "♠")
func (s Suit) String() string {
	if int(s) < len(suitSymbols) {
		return suitSymbols[s]
	}
	return "?"
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are high (14); the evaluator handles the wheel.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the value used on the wire: "2".."10", "J", "Q", "K", "A"
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card is an immutable playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Suit <= Clubs && c.Rank >= Two && c.Rank <= Ace
}

// Index returns a dense index in [0,52) for use in bitsets
func (c Card) Index() int {
	return int(c.Suit)*13 + int(c.Rank-Two)
}

type wireCard struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// MarshalJSON encodes the card as {"suit":"♠","value":"A"}
func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %d/%d", c.Suit, c.Rank)
	}
	return json.Marshal(wireCard{Suit: c.Suit.String(), Value: c.Rank.String()})
}

// UnmarshalJSON decodes the {"suit","value"} wire form
func (c *Card) UnmarshalJSON(data []byte) error {
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	suit, ok := parseSuit(w.Suit)
	if !ok {
		return fmt.Errorf("invalid suit %q", w.Suit)
	}
	rank, ok := parseRank(w.Value)
	if !ok {
		return fmt.Errorf("invalid value %q", w.Value)
	}
	*c = Card{Suit: suit, Rank: rank}
	return nil
}

var ErrInvalidCard = errors.New("invalid card")

// ParseCard parses short notation such as "As", "Td", "10h" or "K♣"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("%w: empty", ErrInvalidCard)
	}
	runes := []rune(s)
	suitPart := string(runes[len(runes)-1])
	rankPart := string(runes[:len(runes)-1])

	suit, ok := parseSuit(suitPart)
	if !ok {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, s)
	}
	rank, ok := parseRank(rankPart)
	if !ok {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, s)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseCards parses a list of cards separated by spaces or concatenated ("AsKs Qs")
func ParseCards(s string) ([]Card, error) {
	var cards []Card
	for _, field := range strings.Fields(s) {
		runes := []rune(field)
		for i := 0; i < len(runes); {
			n := 2
			if runes[i] == '1' && i+2 < len(runes) && runes[i+1] == '0' {
				n = 3
			}
			if i+n > len(runes) {
				return nil, fmt.Errorf("%w: truncated %q", ErrInvalidCard, field)
			}
			card, err := ParseCard(string(runes[i : i+n]))
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
			i += n
		}
	}
	return cards, nil
}

// MustParseCards is ParseCards for tests and fixtures
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func parseSuit(s string) (Suit, bool) {
	switch strings.ToLower(s) {
	case "s", "♠":
		return Spades, true
	case "h", "♥":
		return Hearts, true
	case "d", "♦":
		return Diamonds, true
	case "c", "♣":
		return Clubs, true
	}
	return 0, false
}

func parseRank(s string) (Rank, bool) {
	switch strings.ToUpper(s) {
	case "2":
		return Two, true
	case "3":
		return Three, true
	case "4":
		return Four, true
	case "5":
		return Five, true
	case "6":
		return Six, true
	case "7":
		return Seven, true
	case "8":
		return Eight, true
	case "9":
		return Nine, true
	case "T", "10":
		return Ten, true
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	case "A":
		return Ace, true
	}
	return 0, false
}
