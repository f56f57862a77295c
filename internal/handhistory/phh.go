// Package handhistory records finished hands in the Poker Hand History (PHH)
// TOML format, one file per hand.
package handhistory

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
)

// Variant is the PHH code for no-limit Texas hold'em
const Variant = "NT"

// HandHistory is a single hand in PHH form. Player slices are indexed by
// position, starting left of the button.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Table             string         `toml:"table,omitempty"`
	SeatCount         int            `toml:"seat_count,omitempty"`
	Seats             []int          `toml:"seats,omitempty"`
	Antes             []int          `toml:"antes"`
	BlindsOrStraddles []int          `toml:"blinds_or_straddles"`
	MinBet            int            `toml:"min_bet"`
	StartingStacks    []int          `toml:"starting_stacks"`
	FinishingStacks   []int          `toml:"finishing_stacks,omitempty"`
	Winnings          []int          `toml:"winnings,omitempty"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players,omitempty"`
	HandID            string         `toml:"hand"`
	Time              string         `toml:"time,omitempty"`
	TimeZone          string         `toml:"time_zone,omitempty"`
	Day               int            `toml:"day,omitempty"`
	Month             int            `toml:"month,omitempty"`
	Year              int            `toml:"year,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`

	HandNumber int `toml:"-"`
}

// Encode writes the hand as PHH TOML
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("handhistory: hand is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a PHH document
func Decode(data []byte) (*HandHistory, error) {
	var hand HandHistory
	if _, err := toml.Decode(string(data), &hand); err != nil {
		return nil, fmt.Errorf("handhistory: %w", err)
	}
	return &hand, nil
}

var phhRanks = map[deck.Rank]string{deck.Ten: "T", deck.Jack: "J", deck.Queen: "Q", deck.King: "K", deck.Ace: "A"}

var phhSuits = [...]string{deck.Spades: "s", deck.Hearts: "h", deck.Diamonds: "d", deck.Clubs: "c"}

// Card renders a card in PHH notation ("Ts", "9h")
func Card(c deck.Card) string {
	rank, ok := phhRanks[c.Rank]
	if !ok {
		rank = c.Rank.String()
	}
	return rank + phhSuits[c.Suit]
}

// Cards concatenates cards in PHH notation ("AsKd")
func Cards(cards []deck.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(Card(c))
	}
	return b.String()
}
