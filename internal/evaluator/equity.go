package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
)

// DefaultSamples is used when Equity is called with samples <= 0
const DefaultSamples = 2000

// exactThreshold is the most missing board cards enumerated exhaustively
const exactThreshold = 2

// CardSet represents a set of cards as a bitset over deck.Card.Index
type CardSet uint64

// Add adds a card to the set
func (cs *CardSet) Add(card deck.Card) {
	*cs |= 1 << card.Index()
}

// Contains checks if a card is in the set
func (cs CardSet) Contains(card deck.Card) bool {
	return cs&(1<<card.Index()) != 0
}

// NewCardSet creates a CardSet from slices of cards
func NewCardSet(groups ...[]deck.Card) CardSet {
	var cs CardSet
	for _, cards := range groups {
		for _, card := range cards {
			cs.Add(card)
		}
	}
	return cs
}

// tally accumulates pot shares won per hand; a k-way tie adds 1/k to each
type tally struct {
	shares  []float64
	samples int
}

func newTally(n int) tally {
	return tally{shares: make([]float64, n)}
}

func (t *tally) merge(o tally) {
	for i := range t.shares {
		t.shares[i] += o.shares[i]
	}
	t.samples += o.samples
}

func (t tally) equity() []float64 {
	out := make([]float64, len(t.shares))
	if t.samples == 0 {
		return out
	}
	for i, s := range t.shares {
		out[i] = s / float64(t.samples)
	}
	return out
}

// Equity returns each hand's expected share of the pot given the known board.
// Dead cards are excluded from the runout. With at most two board cards to
// come every runout is enumerated; otherwise samples random runouts are
// spread over worker goroutines seeded from rng.
func Equity(ctx context.Context, hands [][]deck.Card, board, dead []deck.Card, samples int, rng *rand.Rand) ([]float64, error) {
	if len(hands) < 2 {
		return nil, errors.New("equity needs at least two hands")
	}
	if len(board) > 5 {
		return nil, fmt.Errorf("%w: board has %d cards", ErrInvalidHand, len(board))
	}
	used := NewCardSet(board, dead)
	seen := 0
	for _, h := range hands {
		if len(h) != 2 {
			return nil, fmt.Errorf("%w: hole hand has %d cards", ErrInvalidHand, len(h))
		}
		seen += len(h)
	}
	seen += len(board) + len(dead)
	for _, h := range hands {
		for _, c := range h {
			used.Add(c)
		}
	}
	if bits.OnesCount64(uint64(used)) != seen {
		return nil, fmt.Errorf("%w: duplicate cards", ErrInvalidHand)
	}

	var available []deck.Card
	for _, c := range deck.Full() {
		if !used.Contains(c) {
			available = append(available, c)
		}
	}

	missing := 5 - len(board)
	if missing <= exactThreshold {
		t := newTally(len(hands))
		enumerate(available, missing, func(runout []deck.Card) {
			t.score(hands, board, runout)
		})
		return t.equity(), nil
	}

	if samples <= 0 {
		samples = DefaultSamples
	}
	return monteCarlo(ctx, hands, board, available, missing, samples, rng)
}

func monteCarlo(ctx context.Context, hands [][]deck.Card, board, available []deck.Card, missing, samples int, rng *rand.Rand) ([]float64, error) {
	workers := min(runtime.NumCPU(), 8)
	perWorker := samples / workers
	remainder := samples % workers

	g, ctx := errgroup.WithContext(ctx)
	results := make([]tally, workers)
	for w := 0; w < workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}
		// independent generator per worker; the parent is not safe for concurrent use
		workerRng := rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
		g.Go(func() error {
			t := newTally(len(hands))
			pool := make([]deck.Card, len(available))
			for i := 0; i < n; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				copy(pool, available)
				// partial Fisher-Yates for the missing board cards
				for j := 0; j < missing; j++ {
					k := j + workerRng.IntN(len(pool)-j)
					pool[j], pool[k] = pool[k], pool[j]
				}
				t.score(hands, board, pool[:missing])
			}
			results[w] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newTally(len(hands))
	for _, r := range results {
		total.merge(r)
	}
	return total.equity(), nil
}

func (t *tally) score(hands [][]deck.Card, board, runout []deck.Card) {
	cards := make([]deck.Card, 0, 7)
	var best HandValue
	var winners []int
	for i, h := range hands {
		cards = append(cards[:0], h...)
		cards = append(cards, board...)
		cards = append(cards, runout...)
		v := evaluateBest(cards)
		switch cmp := Compare(v, best); {
		case len(winners) == 0 || cmp > 0:
			best = v
			winners = append(winners[:0], i)
		case cmp == 0:
			winners = append(winners, i)
		}
	}
	share := 1 / float64(len(winners))
	for _, w := range winners {
		t.shares[w] += share
	}
	t.samples++
}

// enumerate calls fn with every k-card combination of cards
func enumerate(cards []deck.Card, k int, fn func([]deck.Card)) {
	combo := make([]deck.Card, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			fn(combo)
			return
		}
		for i := start; i <= len(cards)-(k-depth); i++ {
			combo[depth] = cards[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}
