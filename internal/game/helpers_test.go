package game

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/randutil"
)

var playerIDs = []string{"a", "b", "c", "d", "e", "f", "g", "h"}

// newTestTable seats one player per stack, ids "a", "b", ... in seat order.
// The dealer starts at seat 0.
func newTestTable(t *testing.T, rules Rules, stacks ...int) *Table {
	t.Helper()
	table := NewTable(randutil.New(1), rules, WithClock(quartz.NewMock(t)))
	for i, chips := range stacks {
		id := playerIDs[i]
		require.NoError(t, table.AddPlayer(&Player{ID: id, Name: "player-" + id, Chips: chips, Connected: true}))
	}
	return table
}

func mustAct(t *testing.T, table *Table, id string, action Action, amount int) {
	t.Helper()
	require.NoError(t, table.Act(id, action, amount), "%s %s %d", id, action, amount)
	require.NoError(t, table.CheckInvariants())
}

func currentID(table *Table) string {
	if p := table.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}

func chipsOf(table *Table) map[string]int {
	out := make(map[string]int)
	for _, p := range table.Players {
		out[p.ID] = p.Chips
	}
	return out
}

func entriesOfType(table *Table, typ EntryType) []LogEntry {
	var out []LogEntry
	for _, e := range table.Log.Entries() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// stack builds a deck order from hole cards listed in deal order followed by
// the board. Burn cards are inserted before the flop, turn and river.
func stack(t *testing.T, hole, board, burns string) []deck.Card {
	t.Helper()
	return append(deck.MustParseCards(hole), runoutCards(t, board, burns)...)
}

// runoutCards orders a five card board with its three burn cards
func runoutCards(t *testing.T, board, burns string) []deck.Card {
	t.Helper()
	b := deck.MustParseCards(board)
	x := deck.MustParseCards(burns)
	require.Len(t, b, 5)
	require.Len(t, x, 3)
	return []deck.Card{x[0], b[0], b[1], b[2], x[1], b[3], x[2], b[4]}
}
