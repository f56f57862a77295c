package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cards     string
		rank      HandRank
		highCards []int
	}{
		{"royal flush", "AsKsQsJsTs9h8h", RoyalFlush, []int{14}},
		{"straight flush", "9s8s7s6s5s4h3h", StraightFlush, []int{9}},
		{"wheel straight flush", "As2s3s4s5sKhKd", StraightFlush, []int{5}},
		{"four of a kind", "AsAhAdAcKs2h3h", FourOfAKind, []int{14, 13}},
		{"full house", "AsAhAdKsKh2h3h", FullHouse, []int{14, 13}},
		{"full house from two trips", "AsAhAdKsKhKd3h", FullHouse, []int{14, 13}},
		{"flush", "AsKsQs8s6s4h3h", Flush, []int{14, 13, 12, 8, 6}},
		{"straight", "AsKhQdJcTs9h8h", Straight, []int{14}},
		{"wheel", "Ah2c3d4s5hKdQc", Straight, []int{5}},
		{"three of a kind", "AsAhAdKs9c7h5h", ThreeOfAKind, []int{14, 13, 9}},
		{"two pair", "AsAhKdKs9c7h5h", TwoPair, []int{14, 13, 9}},
		{"three pairs keeps best kicker", "AsAhKdKs9c9h5h", TwoPair, []int{14, 13, 9}},
		{"pair", "AsAhKdQs9c7h5h", Pair, []int{14, 13, 12, 9}},
		{"high card", "AsJh9d7s5c3h2h", HighCard, []int{14, 11, 9, 7, 5}},
		{"five cards", "2c3c4c5c7d", HighCard, []int{7, 5, 4, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := Evaluate(deck.MustParseCards(tt.cards))
			require.NoError(t, err)
			assert.Equal(t, tt.rank, v.Rank)
			assert.Equal(t, tt.rank.String(), v.Name)
			assert.Equal(t, tt.highCards, v.HighCards)
		})
	}
}

func TestEvaluateInvalid(t *testing.T) {
	t.Parallel()

	for _, cards := range []string{"AsKs", "AsKsQsJs", "AsKsQsJsTs9s8s7s", "AsAsQsJsTs"} {
		_, err := Evaluate(deck.MustParseCards(cards))
		assert.ErrorIs(t, err, ErrInvalidHand, cards)
	}
}

func TestRankConstantsAscend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, HandRank(1), HighCard)
	assert.Equal(t, HandRank(10), RoyalFlush)
	for r := HighCard; r < RoyalFlush; r++ {
		assert.Less(t, r, r+1)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	eval := func(s string) HandValue {
		v, err := Evaluate(deck.MustParseCards(s))
		require.NoError(t, err)
		return v
	}

	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"wheel straight flush beats full house", "As2s3s4s5s", "KsKhKdQsQh", 1},
		{"six high straight beats wheel", "2c3d4h5s6c", "Ac2d3h4s5c", 1},
		{"higher kicker wins", "AsAhKd9c7h", "AdAcQd9s7c", 1},
		{"split on same values", "AsAhKd9c7h", "AdAcKs9s7c", 0},
		{"two pair beats pair", "2s2h3d3c4h", "AsAhKdQc9h", 1},
		{"lower flush loses", "Ks9s7s5s3s", "AhTh8h6h2h", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, b := eval(tt.a), eval(tt.b)
			assert.Equal(t, tt.expected, Compare(a, b))
			assert.Equal(t, -tt.expected, Compare(b, a))
		})
	}
}
