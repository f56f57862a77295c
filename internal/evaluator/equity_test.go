package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/randutil"
)

func TestEquity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hands    []string
		board    string
		min, max float64
	}{
		{"aces vs kings preflop", []string{"AsAd", "KhKc"}, "", 0.78, 0.86},
		{"made hand vs flush draw on turn", []string{"AcAd", "KsQs"}, "2s7s9hJd", 0.72, 0.73},
		{"river is decided", []string{"AcAd", "KsKd"}, "2s7s9hJdQc", 1, 1},
		{"chopped board", []string{"2c3d", "2h3s"}, "AsKsQsJsTs", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hands := make([][]deck.Card, len(tt.hands))
			for i, h := range tt.hands {
				hands[i] = deck.MustParseCards(h)
			}
			eq, err := Equity(context.Background(), hands, deck.MustParseCards(tt.board), nil, 4000, randutil.New(1))
			require.NoError(t, err)
			require.Len(t, eq, len(hands))
			assert.GreaterOrEqual(t, eq[0], tt.min)
			assert.LessOrEqual(t, eq[0], tt.max)
			assert.InDelta(t, 1.0, eq[0]+eq[1], 1e-9)
		})
	}
}

func TestEquityDeadCardsAndErrors(t *testing.T) {
	t.Parallel()

	hands := [][]deck.Card{deck.MustParseCards("AcAd"), deck.MustParseCards("KsKd")}
	board := deck.MustParseCards("2c7d9h")

	// with both remaining kings dead the kings cannot catch up
	eq, err := Equity(context.Background(), hands, board, deck.MustParseCards("KhKc"), 0, randutil.New(3))
	require.NoError(t, err)
	assert.Equal(t, 1.0, eq[0])

	_, err = Equity(context.Background(), hands[:1], board, nil, 0, randutil.New(3))
	assert.Error(t, err)

	_, err = Equity(context.Background(), hands, deck.MustParseCards("AcKh2s"), nil, 0, randutil.New(3))
	assert.ErrorIs(t, err, ErrInvalidHand)
}

func TestEquityHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hands := [][]deck.Card{deck.MustParseCards("AcAd"), deck.MustParseCards("KsKd")}
	_, err := Equity(ctx, hands, nil, nil, 10000, randutil.New(5))
	assert.ErrorIs(t, err, context.Canceled)
}
