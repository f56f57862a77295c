package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process wallet for development and tests. Unknown users
// start with the configured initial balance.
type Memory struct {
	mu       sync.Mutex
	initial  int
	balances map[string]int
	applied  map[string]int
	rounds   []MatchRound
	roundKey map[string]bool
}

func NewMemory(initialBalance int) *Memory {
	return &Memory{
		initial:  initialBalance,
		balances: make(map[string]int),
		applied:  make(map[string]int),
		roundKey: make(map[string]bool),
	}
}

func (m *Memory) balance(userID string) int {
	b, ok := m.balances[userID]
	if !ok {
		b = m.initial
		m.balances[userID] = b
	}
	return b
}

func (m *Memory) Debit(ctx context.Context, userID string, amount int, tag string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := IdempotencyKey(ctx)
	if b, ok := m.applied[key]; ok && key != "" {
		return b, nil
	}
	b := m.balance(userID)
	if b < amount {
		return b, ErrInsufficientFunds
	}
	b -= amount
	m.balances[userID] = b
	if key != "" {
		m.applied[key] = b
	}
	return b, nil
}

func (m *Memory) Credit(ctx context.Context, userID string, amount int, tag, note string) (int, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := IdempotencyKey(ctx)
	if b, ok := m.applied[key]; ok && key != "" {
		return b, nil
	}
	b := m.balance(userID) + amount
	m.balances[userID] = b
	if key != "" {
		m.applied[key] = b
	}
	return b, nil
}

func (m *Memory) RecordMatchRound(ctx context.Context, round MatchRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := IdempotencyKey(ctx)
	if key != "" {
		if m.roundKey[key] {
			return nil
		}
		m.roundKey[key] = true
	}
	m.rounds = append(m.rounds, round)
	return nil
}

// Balance returns the user's current balance
func (m *Memory) Balance(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(userID)
}

// MatchRounds returns a copy of every recorded round
func (m *Memory) MatchRounds() []MatchRound {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MatchRound, len(m.rounds))
	copy(out, m.rounds)
	return out
}

func (m *Memory) Close() error { return nil }
