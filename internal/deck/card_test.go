package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/randutil"
)

func TestParseCards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Spades, Rank: King},
				{Suit: Spades, Rank: Queen},
				{Suit: Spades, Rank: Jack},
				{Suit: Spades, Rank: Ten},
			},
		},
		{
			name:  "ten written as 10 with symbols",
			input: "10♥ 2♣",
			expected: []Card{
				{Suit: Hearts, Rank: Ten},
				{Suit: Clubs, Rank: Two},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
				{Suit: Diamonds, Rank: Queen},
				{Suit: Clubs, Rank: Jack},
			},
		},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AxKs", wantErr: true},
		{name: "truncated", input: "AsK", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCard)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCardJSON(t *testing.T) {
	t.Parallel()

	card := NewCard(Hearts, Ten)
	data, err := json.Marshal(card)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"♥","value":"10"}`, string(data))

	var back Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"♠","value":"A"}`), &back))
	assert.Equal(t, NewCard(Spades, Ace), back)

	assert.Error(t, json.Unmarshal([]byte(`{"suit":"x","value":"A"}`), &back))
}

func TestShuffledDeckHasUniqueCards(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 50; seed++ {
		d := NewShuffled(randutil.New(seed))
		cards, err := d.Deal(52)
		require.NoError(t, err)
		require.Len(t, cards, 52)

		seen := make(map[Card]bool, 52)
		for _, c := range cards {
			require.True(t, c.Valid(), "seed %d produced invalid card %v", seed, c)
			require.False(t, seen[c], "seed %d produced duplicate %v", seed, c)
			seen[c] = true
		}
		_, err = d.Deal(1)
		assert.ErrorIs(t, err, ErrDeckExhausted)
	}
}

func TestSecureDeckHasUniqueCards(t *testing.T) {
	t.Parallel()

	d := NewShuffled(randutil.NewSecure())
	seen := make(map[Card]bool, 52)
	for _, c := range d.Undealt() {
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestStackPutsCardsOnTop(t *testing.T) {
	t.Parallel()

	d := NewShuffled(randutil.New(7))
	top := MustParseCards("As Kd 2c")
	d.Stack(top)

	dealt, err := d.Deal(3)
	require.NoError(t, err)
	assert.Equal(t, top, dealt)
	assert.Equal(t, 49, d.Remaining())

	seen := make(map[Card]bool)
	for _, c := range append(dealt, d.Undealt()...) {
		require.False(t, seen[c])
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}
