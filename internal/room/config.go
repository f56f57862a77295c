package room

import (
	"fmt"
	"time"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
)

// Config holds the settings every room is created with
type Config struct {
	Rules game.Rules

	MinBuyIn int
	MaxBuyIn int

	TurnTimeout             time.Duration
	DisconnectedTurnTimeout time.Duration
	ReconnectGrace          time.Duration
	EmptyRoomGrace          time.Duration
	SpectatorDelay          time.Duration
	AutoNextHand            time.Duration // 0 waits for the host

	LogTail int // action log entries carried in each snapshot
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() Config {
	return Config{
		Rules:                   game.DefaultRules(),
		MinBuyIn:                100,
		MaxBuyIn:                10000,
		TurnTimeout:             30 * time.Second,
		DisconnectedTurnTimeout: 5 * time.Second,
		ReconnectGrace:          60 * time.Second,
		EmptyRoomGrace:          2 * time.Minute,
		SpectatorDelay:          10 * time.Second,
		AutoNextHand:            0,
		LogTail:                 50,
	}
}

// Validate checks the config is usable
func (c Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.MinBuyIn <= 0 {
		return fmt.Errorf("min buy-in must be positive")
	}
	if c.MaxBuyIn < c.MinBuyIn {
		return fmt.Errorf("max buy-in %d is below min buy-in %d", c.MaxBuyIn, c.MinBuyIn)
	}
	if c.MinBuyIn < c.Rules.BigBlind {
		return fmt.Errorf("min buy-in %d is below the big blind %d", c.MinBuyIn, c.Rules.BigBlind)
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive")
	}
	if c.DisconnectedTurnTimeout <= 0 || c.DisconnectedTurnTimeout > c.TurnTimeout {
		return fmt.Errorf("disconnected turn timeout must be positive and at most the turn timeout")
	}
	if c.ReconnectGrace < 0 || c.EmptyRoomGrace < 0 || c.SpectatorDelay < 0 || c.AutoNextHand < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	if c.LogTail < 0 {
		return fmt.Errorf("log tail cannot be negative")
	}
	return nil
}
