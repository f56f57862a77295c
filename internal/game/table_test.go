package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/evaluator"
)

func TestHeadsUpCheckedDown(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000)
	// deal order starts left of the dealer: b, a, b, a
	table.StackNextDeck(stack(t, "7c As 2d Ad", "Kc 9s 4d Jc 8d", "3h 5h 6h"))
	require.NoError(t, table.StartHand())
	require.Equal(t, 1, table.HandNumber)
	require.Equal(t, 0, table.DealerIndex)

	// the button posts the small blind and acts first preflop
	assert.Equal(t, 5, table.Player("a").Bet)
	assert.Equal(t, 10, table.Player("b").Bet)
	assert.Equal(t, 15, table.Pot)
	assert.Equal(t, "a", currentID(table))

	mustAct(t, table, "a", Call, 0)
	assert.Equal(t, 20, table.Pot)
	mustAct(t, table, "b", Check, 0)

	for _, street := range []State{Flop, Turn, River} {
		require.Equal(t, street, table.State)
		assert.Equal(t, "b", currentID(table), "big blind acts first on the %s", street)
		mustAct(t, table, "b", Check, 0)
		mustAct(t, table, "a", Check, 0)
	}

	require.Equal(t, Showdown, table.State)
	require.Len(t, table.Winners, 1)
	assert.Equal(t, "a", table.Winners[0].PlayerID)
	assert.Equal(t, 20, table.Winners[0].Amount)
	require.NotNil(t, table.Winners[0].Hand)
	assert.Equal(t, evaluator.Pair, table.Winners[0].Hand.Rank)
	assert.Equal(t, map[string]int{"a": 1010, "b": 990}, chipsOf(table))
	assert.Equal(t, 1, table.DealerIndex)
	assert.Equal(t, -1, table.CurrentPlayerIndex)

	require.NoError(t, table.StartHand())
	assert.Equal(t, 2, table.HandNumber)
	assert.Equal(t, "b", table.Dealer().ID)
	assert.Equal(t, 5, table.Player("b").Bet)
}

func TestThreeHandedBlindsAndOrder(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
	require.NoError(t, table.StartHand())

	assert.Equal(t, 0, table.Player("a").Bet)
	assert.Equal(t, 5, table.Player("b").Bet)
	assert.Equal(t, 10, table.Player("c").Bet)
	assert.Equal(t, "a", currentID(table), "first to act sits after the big blind")

	mustAct(t, table, "a", Call, 0)
	mustAct(t, table, "b", Call, 0)
	assert.Equal(t, "c", currentID(table), "big blind keeps the option")
	assert.Contains(t, table.ValidActions("c"), Raise)
	mustAct(t, table, "c", Check, 0)

	require.Equal(t, Flop, table.State)
	assert.Len(t, table.Board, 3)
	assert.Equal(t, "b", currentID(table), "small blind acts first after the flop")
}

func TestOutOfTurnRejectedWithoutChange(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
	require.NoError(t, table.StartHand())

	before := chipsOf(table)
	pot, bet, seq := table.Pot, table.CurrentBet, table.Log.LastSeq()

	for _, id := range []string{"b", "c"} {
		for _, action := range []Action{Fold, Check, Call, Raise, AllIn} {
			err := table.Act(id, action, 40)
			assert.ErrorIs(t, err, ErrNotYourTurn)
		}
	}
	assert.ErrorIs(t, table.Act("zz", Fold, 0), ErrPlayerNotFound)

	assert.Equal(t, before, chipsOf(table))
	assert.Equal(t, pot, table.Pot)
	assert.Equal(t, bet, table.CurrentBet)
	assert.Equal(t, seq, table.Log.LastSeq())
	assert.Equal(t, "a", currentID(table))
}

func TestActOutsideHand(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000)
	assert.ErrorIs(t, table.Act("a", Check, 0), ErrHandNotActive)
	_, err := table.Timeout("a")
	assert.ErrorIs(t, err, ErrHandNotActive)
}

func TestStartHandNeedsTwoFundedPlayers(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 0)
	assert.ErrorIs(t, table.StartHand(), ErrNotEnoughPlayers)
	assert.Equal(t, 0, table.HandNumber)

	require.NoError(t, table.AddPlayer(&Player{ID: "c", Name: "c", Chips: 500}))
	require.NoError(t, table.StartHand())
	assert.False(t, table.Player("b").InHand(), "players without chips sit out")
	assert.Len(t, table.Player("b").Cards, 0)
	assert.ErrorIs(t, table.StartHand(), ErrHandInProgress)
}

func TestSeatsAndCapacity(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.MaxSeats = 3
	table := newTestTable(t, rules, 100, 100, 100)
	assert.ErrorIs(t, table.AddPlayer(&Player{ID: "d", Chips: 100}), ErrTableFull)
	assert.ErrorIs(t, table.AddPlayer(&Player{ID: "a", Chips: 100}), ErrDuplicatePlayer)

	cash, err := table.RemovePlayer("b")
	require.NoError(t, err)
	assert.Equal(t, 100, cash)

	require.NoError(t, table.AddPlayer(&Player{ID: "d", Chips: 200}))
	assert.Equal(t, 1, table.Player("d").SeatIndex, "lowest free seat is reused")
	ids := []string{}
	for _, p := range table.Players {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "d", "c"}, ids)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("folds when facing a bet", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, DefaultRules(), 1000, 1000)
		require.NoError(t, table.StartHand())

		action, err := table.Timeout("a")
		require.NoError(t, err)
		assert.Equal(t, Fold, action)
		require.NoError(t, table.CheckInvariants())

		timeouts := entriesOfType(table, EntryTimeout)
		require.Len(t, timeouts, 1)
		assert.Equal(t, "fold", timeouts[0].Action)
		assert.Empty(t, entriesOfType(table, EntryFold), "timeouts log a single entry")

		assert.Equal(t, Showdown, table.State)
		require.Len(t, table.Winners, 1)
		assert.Equal(t, "b", table.Winners[0].PlayerID)
		assert.Nil(t, table.Winners[0].Hand)
		assert.Equal(t, map[string]int{"a": 995, "b": 1005}, chipsOf(table))
	})

	t.Run("checks when nothing is owed", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, DefaultRules(), 1000, 1000)
		require.NoError(t, table.StartHand())
		mustAct(t, table, "a", Call, 0)

		action, err := table.Timeout("b")
		require.NoError(t, err)
		assert.Equal(t, Check, action)
		assert.Equal(t, Flop, table.State)
		assert.False(t, table.Player("b").Folded)

		_, err = table.Timeout("a")
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})
}

func TestIllegalActions(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
	require.NoError(t, table.StartHand())

	assert.ErrorIs(t, table.Act("a", Check, 0), ErrIllegalAction)
	assert.ErrorIs(t, table.Act("a", Raise, 15), ErrRaiseTooSmall)
	assert.ErrorIs(t, table.Act("a", Raise, 10), ErrRaiseTooSmall)
	assert.ErrorIs(t, table.Act("a", Raise, 1001), ErrInsufficientChips)

	mustAct(t, table, "a", Raise, 20)
	assert.Equal(t, 10, table.MinRaise)
	assert.ErrorIs(t, table.Act("b", Raise, 25), ErrRaiseTooSmall)
	mustAct(t, table, "b", Raise, 50)
	assert.Equal(t, 30, table.MinRaise)
	assert.Equal(t, 50, table.CurrentBet)
}

func TestCallWithNothingOwedIsCheck(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000)
	require.NoError(t, table.StartHand())
	mustAct(t, table, "a", Call, 0)
	mustAct(t, table, "b", Call, 0)

	assert.Equal(t, Flop, table.State)
	assert.Equal(t, 20, table.Pot)
	checks := entriesOfType(table, EntryCheck)
	require.Len(t, checks, 1)
	assert.Equal(t, "b", checks[0].PlayerID)
}

func TestRaiseOfWholeStackIsAllIn(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 300, 1000)
	require.NoError(t, table.StartHand())
	mustAct(t, table, "a", Raise, 300)

	a := table.Player("a")
	assert.True(t, a.AllIn)
	assert.Equal(t, 0, a.Chips)
	assert.Len(t, entriesOfType(table, EntryAllIn), 1)
	assert.Equal(t, 300, table.CurrentBet)
}

func TestShortAllInDoesNotReopen(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 60)
	require.NoError(t, table.StartHand())

	mustAct(t, table, "a", Raise, 50)
	mustAct(t, table, "b", Call, 0)
	mustAct(t, table, "c", AllIn, 0)
	assert.Equal(t, 60, table.CurrentBet)
	assert.Equal(t, 40, table.MinRaise, "a short all-in leaves the minimum raise")

	require.Equal(t, "a", currentID(table))
	assert.Equal(t, []Action{Fold, Call}, table.ValidActions("a"))
	assert.ErrorIs(t, table.Act("a", Raise, 200), ErrIllegalAction)
	assert.ErrorIs(t, table.Act("a", AllIn, 0), ErrIllegalAction)

	mustAct(t, table, "a", Call, 0)
	mustAct(t, table, "b", Call, 0)
	assert.Equal(t, Flop, table.State)
	assert.Equal(t, 180, table.Pot)
}

func TestFullAllInRaiseReopens(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 200)
	require.NoError(t, table.StartHand())

	mustAct(t, table, "a", Raise, 50)
	mustAct(t, table, "b", Call, 0)
	mustAct(t, table, "c", AllIn, 0)
	assert.Equal(t, 150, table.MinRaise)
	assert.Contains(t, table.ValidActions("a"), Raise)
	mustAct(t, table, "a", Raise, 500)
}

func TestUncalledBetReturned(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 300)
	table.StackNextDeck(stack(t, "Kc As Kd Ad", "2c 7d 9h Js 3s", "4h 5h 6h"))
	require.NoError(t, table.StartHand())

	mustAct(t, table, "a", AllIn, 0)
	mustAct(t, table, "b", Call, 0)

	require.Equal(t, Showdown, table.State)
	assert.Len(t, table.Board, 5, "all-in players run the board out")
	require.Len(t, table.Winners, 1)
	assert.Equal(t, 600, table.Winners[0].Amount)
	assert.Equal(t, map[string]int{"a": 1300, "b": 0}, chipsOf(table))
	require.NoError(t, table.CheckInvariants())
}

func TestShortAllInBigBlind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stacks []int
		deal   string
		play   func(t *testing.T, table *Table)
		want   map[string]int
	}{
		{
			name:   "heads-up small blind is not asked to call",
			stacks: []int{1000, 3},
			// deal order b, a
			deal: "As Ks Ad Kd",
			want: map[string]int{"a": 997, "b": 6},
		},
		{
			name:   "button folds and the small blind is done",
			stacks: []int{1000, 1000, 3},
			// deal order b, c, a
			deal: "Ks As 2c Kd Ad 7h",
			play: func(t *testing.T, table *Table) {
				require.Equal(t, "a", currentID(table))
				mustAct(t, table, "a", Fold, 0)
			},
			want: map[string]int{"a": 1000, "b": 997, "c": 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			table := newTestTable(t, DefaultRules(), tt.stacks...)
			table.StackNextDeck(stack(t, tt.deal, "2h 7d 9h Js 3s", "4h 5h 6h"))
			require.NoError(t, table.StartHand())
			if tt.play != nil {
				tt.play(t, table)
			}

			require.Equal(t, Showdown, table.State)
			assert.Len(t, table.Board, 5)
			assert.Equal(t, tt.want, chipsOf(table))
			require.Len(t, table.Winners, 1)
			assert.Equal(t, 6, table.Winners[0].Amount, "only the covered 3 chips are contested")
			assert.Empty(t, entriesOfType(table, EntryCall))
			require.NoError(t, table.CheckInvariants())
		})
	}
}

func TestFoldEndsHandUncontested(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
	require.NoError(t, table.StartHand())
	mustAct(t, table, "a", Raise, 100)
	mustAct(t, table, "b", Fold, 0)
	mustAct(t, table, "c", Fold, 0)

	assert.Equal(t, Showdown, table.State)
	assert.Empty(t, table.Board)
	require.Len(t, table.Winners, 1)
	assert.Equal(t, "a", table.Winners[0].PlayerID)
	assert.Equal(t, 25, table.Winners[0].Amount, "the uncalled raise is returned first")
	assert.Equal(t, map[string]int{"a": 1015, "b": 995, "c": 990}, chipsOf(table))
	assert.Equal(t, 1, table.DealerIndex)
}

func TestRemovePlayer(t *testing.T) {
	t.Parallel()

	t.Run("mid hand folds and frees the seat after the hand", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
		require.NoError(t, table.StartHand())

		cash, err := table.RemovePlayer("c")
		require.NoError(t, err)
		assert.Equal(t, 990, cash)
		assert.True(t, table.Player("c").Folded)
		assert.True(t, table.Player("c").Left())
		require.NoError(t, table.CheckInvariants())

		_, err = table.RemovePlayer("c")
		assert.ErrorIs(t, err, ErrPlayerNotFound)

		mustAct(t, table, "a", Fold, 0)
		assert.Equal(t, Showdown, table.State)
		assert.Nil(t, table.Player("c"))
		assert.Equal(t, map[string]int{"a": 1000, "b": 1010}, chipsOf(table))
		require.NoError(t, table.CheckInvariants())
	})

	t.Run("current player leaving passes the turn", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
		require.NoError(t, table.StartHand())
		require.Equal(t, "a", currentID(table))

		_, err := table.RemovePlayer("a")
		require.NoError(t, err)
		assert.Equal(t, "b", currentID(table))
		require.NoError(t, table.CheckInvariants())
	})

	t.Run("between hands keeps the button on the right player", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
		table.DealerIndex = 2

		_, err := table.RemovePlayer("a")
		require.NoError(t, err)
		assert.Equal(t, "c", table.Dealer().ID)
	})
}

func TestRake(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.RakeBasisPoints = 500
	rules.RakeCap = 3

	t.Run("taken from contested pots after the flop", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, rules, 1000, 1000)
		table.StackNextDeck(stack(t, "7c As 2d Ad", "Kc 9s 4d Jc 8d", "3h 5h 6h"))
		require.NoError(t, table.StartHand())
		mustAct(t, table, "a", Raise, 100)
		mustAct(t, table, "b", Call, 0)
		for table.State.Betting() {
			mustAct(t, table, currentID(table), Check, 0)
		}

		rake := entriesOfType(table, EntryRake)
		require.Len(t, rake, 1)
		assert.Equal(t, 3, rake[0].Amount, "capped")
		assert.Equal(t, 197, table.Winners[0].Amount)
		assert.Equal(t, 1997, table.TotalChips())
		assert.Equal(t, 3, table.HouseNet())
		require.NoError(t, table.CheckInvariants())
	})

	t.Run("no flop no drop", func(t *testing.T) {
		t.Parallel()
		table := newTestTable(t, rules, 1000, 1000)
		require.NoError(t, table.StartHand())
		mustAct(t, table, "a", Raise, 100)
		mustAct(t, table, "b", Fold, 0)
		assert.Empty(t, entriesOfType(table, EntryRake))
		assert.Equal(t, 2000, table.TotalChips())
	})
}

func TestSidePotsAwardedIndependently(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 50, 150, 300)
	// deal order b, c, a, b, c, a
	table.StackNextDeck(stack(t, "Ks 7c As Kd 2h Ad", "3c 8h 9d Jc 4s", "5h 6h 6d"))
	require.NoError(t, table.StartHand())

	mustAct(t, table, "a", AllIn, 0)
	mustAct(t, table, "b", AllIn, 0)
	mustAct(t, table, "c", Call, 0)

	require.Equal(t, Showdown, table.State)
	assert.Equal(t, map[string]int{"a": 150, "b": 200, "c": 150}, chipsOf(table))
	assert.Equal(t, 500, table.TotalChips())
	require.NoError(t, table.CheckInvariants())
}

func TestSplitPotOddChip(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, DefaultRules(), 1000, 1000, 1000)
	// everyone plays the straight on the board
	table.StackNextDeck(stack(t, "2c 3c 4c 2d 3d 4d", "Ts Jh Qd Ks Ah", "5h 6h 7h"))
	require.NoError(t, table.StartHand())

	mustAct(t, table, "a", Call, 0)
	mustAct(t, table, "b", Fold, 0)
	mustAct(t, table, "c", Check, 0)
	for table.State.Betting() {
		mustAct(t, table, currentID(table), Check, 0)
	}

	// 25 chips split two ways; c sits closer to the button's left
	require.Len(t, table.Winners, 2)
	assert.Equal(t, "c", table.Winners[0].PlayerID)
	assert.Equal(t, 13, table.Winners[0].Amount)
	assert.Equal(t, "a", table.Winners[1].PlayerID)
	assert.Equal(t, 12, table.Winners[1].Amount)
	assert.Equal(t, evaluator.Straight, table.Winners[0].Hand.Rank)
	assert.Equal(t, 3000, table.TotalChips())
}
