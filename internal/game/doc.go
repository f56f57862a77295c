// Package game implements the Texas Hold'em engine that a room drives.
//
// The main type is Table, which owns the seats, stacks and the hand in
// progress. Every mutation goes through a small set of methods (AddPlayer,
// RemovePlayer, StartHand, Act, Timeout) so that the betting state machine
// has a single dispatch point.
//
// # Basic Usage
//
//	t := game.NewTable(randutil.NewSecure(), game.DefaultRules())
//	_ = t.AddPlayer(&game.Player{ID: "a", Name: "Alice", Chips: 1000})
//	_ = t.AddPlayer(&game.Player{ID: "b", Name: "Bob", Chips: 1000})
//	_ = t.StartHand()
//	_ = t.Act(t.CurrentPlayer().ID, game.Call, 0)
//
// # Deterministic Testing
//
// Tests inject a seeded generator from randutil.New and may stack the top of
// the next deck with StackNextDeck. A quartz mock clock controls the
// timestamps written to the action log.
//
// # Architecture
//
// Table delegates to a few focused pieces:
//   - betting.go: action validation, street closing and turn order
//   - pot.go: main and side pot construction from contributions
//   - showdown.go: runouts, run it twice, insurance, rake and payouts
//   - actionlog.go: the append-only hand log
package game
