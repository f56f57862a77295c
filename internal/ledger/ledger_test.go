package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type balanceReader interface {
	Ledger
	balanceOf(t *testing.T, userID string) int
}

type memoryBackend struct{ *Memory }

func (m memoryBackend) balanceOf(_ *testing.T, userID string) int { return m.Balance(userID) }

type sqliteBackend struct{ *SQLStore }

func (s sqliteBackend) balanceOf(t *testing.T, userID string) int {
	b, err := s.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func backends(t *testing.T) map[string]func(t *testing.T) balanceReader {
	return map[string]func(t *testing.T) balanceReader{
		"memory": func(t *testing.T) balanceReader {
			return memoryBackend{NewMemory(1000)}
		},
		"sqlite": func(t *testing.T) balanceReader {
			store, err := OpenSQLite(context.Background(), ":memory:", 1000, quartz.NewMock(t))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return sqliteBackend{store}
		},
	}
}

func TestLedgerBackends(t *testing.T) {
	t.Parallel()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("debit and credit", func(t *testing.T) {
				l := open(t)
				ctx := context.Background()

				b, err := l.Debit(ctx, "alice", 300, "poker_buy_in")
				require.NoError(t, err)
				assert.Equal(t, 700, b)

				b, err = l.Credit(ctx, "alice", 450, "poker_cash_out", "room AB12")
				require.NoError(t, err)
				assert.Equal(t, 1150, b)
				assert.Equal(t, 1150, l.balanceOf(t, "alice"))
				assert.Equal(t, 1000, l.balanceOf(t, "bob"))
			})

			t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
				l := open(t)
				_, err := l.Debit(context.Background(), "alice", 1001, "poker_buy_in")
				require.ErrorIs(t, err, ErrInsufficientFunds)
				assert.Equal(t, 1000, l.balanceOf(t, "alice"))
			})

			t.Run("invalid amounts", func(t *testing.T) {
				l := open(t)
				_, err := l.Debit(context.Background(), "alice", 0, "x")
				require.ErrorIs(t, err, ErrInvalidAmount)
				_, err = l.Credit(context.Background(), "alice", -5, "x", "")
				require.ErrorIs(t, err, ErrInvalidAmount)
			})

			t.Run("idempotency key applies once", func(t *testing.T) {
				l := open(t)
				ctx := WithIdempotencyKey(context.Background(), "cash-out-1")

				first, err := l.Credit(ctx, "alice", 200, "poker_cash_out", "")
				require.NoError(t, err)
				second, err := l.Credit(ctx, "alice", 200, "poker_cash_out", "")
				require.NoError(t, err)

				assert.Equal(t, 1200, first)
				assert.Equal(t, first, second)
				assert.Equal(t, 1200, l.balanceOf(t, "alice"))
			})

			t.Run("match rounds dedupe by key", func(t *testing.T) {
				l := open(t)
				ctx := WithIdempotencyKey(context.Background(), "round-1")
				round := MatchRound{UserID: "alice", Game: "poker", Bet: 50, Payout: 120, Metadata: map[string]any{"room": "AB12"}}
				require.NoError(t, l.RecordMatchRound(ctx, round))
				require.NoError(t, l.RecordMatchRound(ctx, round))
				require.NoError(t, l.RecordMatchRound(context.Background(), round))

				var rounds []MatchRound
				switch b := l.(type) {
				case memoryBackend:
					rounds = b.MatchRounds()
				case sqliteBackend:
					var err error
					rounds, err = b.MatchRounds(context.Background(), "alice")
					require.NoError(t, err)
				}
				require.Len(t, rounds, 2)
				assert.Equal(t, "poker", rounds[0].Game)
				assert.Equal(t, 120, rounds[0].Payout)
				assert.Equal(t, "AB12", rounds[0].Metadata["room"])
			})
		})
	}
}

func TestSQLStoreRebind(t *testing.T) {
	t.Parallel()

	pg := &SQLStore{postgres: true}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &SQLStore{}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	l, err := Open(context.Background(), Options{Driver: "memory", InitialBalance: 5}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, l)

	_, err = Open(context.Background(), Options{Driver: "redis"}, nil)
	require.Error(t, err)

	_, err = Open(context.Background(), Options{Driver: "http", URL: "ftp://wallet"}, nil)
	require.Error(t, err)
}

func TestHTTPClient(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req walletRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch r.URL.Path {
		case "/debit":
			if req.Amount > 500 {
				w.WriteHeader(http.StatusPaymentRequired)
				return
			}
			_ = json.NewEncoder(w).Encode(walletResponse{Balance: 500 - req.Amount})
		case "/credit":
			_ = json.NewEncoder(w).Encode(walletResponse{Balance: 500 + req.Amount})
		case "/match-rounds":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/", "secret", time.Second)
	require.NoError(t, err)
	ctx := WithIdempotencyKey(context.Background(), "k1")

	b, err := c.Debit(ctx, "alice", 200, "poker_buy_in")
	require.NoError(t, err)
	assert.Equal(t, 300, b)

	_, err = c.Debit(ctx, "alice", 600, "poker_buy_in")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	b, err = c.Credit(ctx, "alice", 50, "poker_cash_out", "")
	require.NoError(t, err)
	assert.Equal(t, 550, b)

	require.NoError(t, c.RecordMatchRound(ctx, MatchRound{UserID: "alice", Game: "poker"}))

	mu.Lock()
	assert.Equal(t, []string{"k1", "k1", "k1", "k1"}, keys)
	mu.Unlock()
}

// flaky fails the first n calls
type flaky struct {
	*Memory
	mu    sync.Mutex
	fails int
	calls int
	keys  []string
}

func (f *flaky) Credit(ctx context.Context, userID string, amount int, tag, note string) (int, error) {
	f.mu.Lock()
	f.calls++
	f.keys = append(f.keys, IdempotencyKey(ctx))
	fail := f.calls <= f.fails
	f.mu.Unlock()
	if fail {
		return 0, errors.New("connection reset")
	}
	return f.Memory.Credit(ctx, userID, amount, tag, note)
}

func (f *flaky) snapshot() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]string(nil), f.keys...)
}

func TestDispatcherRetriesWithSameKey(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	backend := &flaky{Memory: NewMemory(0), fails: 2}
	d := NewDispatcher(backend, mClock, testLogger(), DispatcherConfig{Workers: 1, Backoff: time.Second})
	defer d.Close()

	d.Credit("alice", 75, "poker_cash_out", "")

	require.Eventually(t, func() bool {
		if dur, ok := mClock.Peek(); ok {
			mClock.Advance(dur).MustWait(ctx)
		}
		return backend.Balance("alice") == 75
	}, 3*time.Second, 5*time.Millisecond)

	calls, keys := backend.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, keys, 3)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[0], keys[2])
}

func TestDispatcherGivesUp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	backend := &flaky{Memory: NewMemory(0), fails: 100}
	d := NewDispatcher(backend, mClock, testLogger(), DispatcherConfig{Workers: 1, MaxAttempts: 3, Backoff: time.Second})
	defer d.Close()

	d.Credit("alice", 10, "poker_cash_out", "")

	require.Eventually(t, func() bool {
		if dur, ok := mClock.Peek(); ok {
			mClock.Advance(dur).MustWait(ctx)
		}
		calls, _ := backend.snapshot()
		return calls == 3
	}, 3*time.Second, 5*time.Millisecond)

	_, ok := mClock.Peek()
	assert.False(t, ok, "no retry should be scheduled after the last attempt")
	assert.Equal(t, 0, backend.Balance("alice"))
}

func TestDispatcherDebitIsSynchronous(t *testing.T) {
	t.Parallel()

	mem := NewMemory(100)
	d := NewDispatcher(mem, quartz.NewMock(t), testLogger(), DispatcherConfig{})
	defer d.Close()

	b, err := d.Debit(context.Background(), "alice", 40, "poker_buy_in")
	require.NoError(t, err)
	assert.Equal(t, 60, b)

	_, err = d.Debit(context.Background(), "alice", 100, "poker_buy_in")
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	t.Parallel()

	mem := NewMemory(0)
	d := NewDispatcher(mem, quartz.NewMock(t), testLogger(), DispatcherConfig{Workers: 2})
	for i := 0; i < 20; i++ {
		d.Credit("alice", 1, "poker_cash_out", "")
	}
	d.RecordMatchRound(MatchRound{UserID: "alice", Game: "poker"})
	require.NoError(t, d.Close())

	assert.Equal(t, 20, mem.Balance("alice"))
	assert.Len(t, mem.MatchRounds(), 1)

	d.Credit("alice", 5, "late", "")
	assert.Equal(t, 20, mem.Balance("alice"))
}
