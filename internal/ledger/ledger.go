// Package ledger moves chips between the poker rooms and the casino wallet.
//
// Rooms only touch the wallet at two boundaries: the buy-in debit when a
// player sits down and the credit when they cash out. Every completed hand is
// also recorded as a match round for the wallet's history and XP rules.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnavailable       = errors.New("wallet unavailable")
	ErrClosed            = errors.New("ledger closed")
)

// Ledger is the wallet collaborator
type Ledger interface {
	// Debit removes amount from the user's balance and returns the new balance
	Debit(ctx context.Context, userID string, amount int, tag string) (int, error)
	// Credit adds amount to the user's balance and returns the new balance
	Credit(ctx context.Context, userID string, amount int, tag, note string) (int, error)
	// RecordMatchRound stores one player's result for one hand
	RecordMatchRound(ctx context.Context, round MatchRound) error
	Close() error
}

// MatchRound is one player's result for one hand
type MatchRound struct {
	UserID   string         `json:"userId"`
	Game     string         `json:"game"`
	Bet      int            `json:"bet"`
	Payout   int            `json:"payout"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches a key that makes a wallet write safe to retry
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKey returns the key attached with WithIdempotencyKey, if any
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

// Options selects and configures a backend
type Options struct {
	Driver         string // memory, sqlite, postgres or http
	DSN            string
	URL            string
	Token          string
	InitialBalance int
	Timeout        time.Duration
}

// Open builds the backend named by opts.Driver
func Open(ctx context.Context, opts Options, clock quartz.Clock) (Ledger, error) {
	if clock == nil {
		clock = quartz.NewReal()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "memory":
		return NewMemory(opts.InitialBalance), nil
	case "sqlite":
		return OpenSQLite(ctx, opts.DSN, opts.InitialBalance, clock)
	case "postgres":
		return OpenPostgres(ctx, opts.DSN, opts.InitialBalance, clock)
	case "http":
		return NewHTTPClient(opts.URL, opts.Token, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", opts.Driver)
	}
}

func checkAmount(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}
