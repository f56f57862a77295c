package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore keeps wallets in sqlite or postgres. Idempotency keys are unique
// in wallet_transactions and match_rounds, so a replayed write returns the
// original result instead of applying twice.
type SQLStore struct {
	db       *sql.DB
	postgres bool
	initial  int
	clock    quartz.Clock
}

// OpenSQLite opens (and creates) a sqlite wallet database
func OpenSQLite(ctx context.Context, path string, initialBalance int, clock quartz.Clock) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return newSQLStore(ctx, db, false, initialBalance, clock)
}

// OpenPostgres connects to a postgres wallet database
func OpenPostgres(ctx context.Context, dsn string, initialBalance int, clock quartz.Clock) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return newSQLStore(ctx, db, true, initialBalance, clock)
}

func newSQLStore(ctx context.Context, db *sql.DB, postgres bool, initialBalance int, clock quartz.Clock) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLStore{db: db, postgres: postgres, initial: initialBalance, clock: clock}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS wallets (
    user_id TEXT PRIMARY KEY,
    balance BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id ` + id + `,
    idempotency_key TEXT UNIQUE,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    amount BIGINT NOT NULL,
    tag TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    balance_after BIGINT NOT NULL,
    created_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions(user_id, created_at_ms)`,
		`
CREATE TABLE IF NOT EXISTS match_rounds (
    id ` + id + `,
    idempotency_key TEXT UNIQUE,
    user_id TEXT NOT NULL,
    game TEXT NOT NULL,
    bet BIGINT NOT NULL,
    payout BIGINT NOT NULL,
    metadata_json TEXT NOT NULL DEFAULT '{}',
    created_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_match_rounds_user ON match_rounds(user_id, created_at_ms)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for postgres
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Debit(ctx context.Context, userID string, amount int, tag string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	return s.apply(ctx, userID, -amount, "debit", tag, "")
}

func (s *SQLStore) Credit(ctx context.Context, userID string, amount int, tag, note string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	return s.apply(ctx, userID, amount, "credit", tag, note)
}

func (s *SQLStore) apply(ctx context.Context, userID string, delta int, kind, tag, note string) (int, error) {
	key := IdempotencyKey(ctx)
	nowMs := s.clock.Now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if key != "" {
		var prior int
		err := tx.QueryRowContext(ctx, s.rebind(`
SELECT balance_after FROM wallet_transactions WHERE idempotency_key = ?
`), key).Scan(&prior)
		if err == nil {
			return prior, tx.Commit()
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO wallets (user_id, balance, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO NOTHING
`), userID, s.initial, nowMs); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, s.rebind(`
UPDATE wallets
SET balance = balance + ?,
    updated_at_ms = ?
WHERE user_id = ?
  AND balance + ? >= 0
`), delta, nowMs, userID, delta)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrInsufficientFunds
	}

	var balance int
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT balance FROM wallets WHERE user_id = ?`), userID).Scan(&balance); err != nil {
		return 0, err
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO wallet_transactions (
    idempotency_key, user_id, kind, amount, tag, note, balance_after, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`), nullableString(key), userID, kind, amount, tag, note, balance, nowMs); err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

func (s *SQLStore) RecordMatchRound(ctx context.Context, round MatchRound) error {
	metadata := round.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO match_rounds (
    idempotency_key, user_id, game, bet, payout, metadata_json, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (idempotency_key) DO NOTHING
`), nullableString(IdempotencyKey(ctx)), round.UserID, round.Game, round.Bet, round.Payout, string(raw), s.clock.Now().UTC().UnixMilli())
	return err
}

// Balance returns the stored balance, or the initial balance for unknown users
func (s *SQLStore) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT balance FROM wallets WHERE user_id = ?`), userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return s.initial, nil
	}
	return balance, err
}

// MatchRounds lists a user's recorded rounds, oldest first
func (s *SQLStore) MatchRounds(ctx context.Context, userID string) ([]MatchRound, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT game, bet, payout, metadata_json
FROM match_rounds
WHERE user_id = ?
ORDER BY id ASC
`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []MatchRound
	for rows.Next() {
		round := MatchRound{UserID: userID}
		var metadataRaw string
		if err := rows.Scan(&round.Game, &round.Bet, &round.Payout, &metadataRaw); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(metadataRaw), &round.Metadata)
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
