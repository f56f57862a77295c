package game

import "errors"

var (
	ErrHandNotActive     = errors.New("no hand in progress")
	ErrHandInProgress    = errors.New("hand in progress")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrIllegalAction     = errors.New("illegal action")
	ErrRaiseTooSmall     = errors.New("raise too small")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrDuplicatePlayer   = errors.New("player already seated")
	ErrTableFull         = errors.New("table full")
	ErrNotEnoughPlayers  = errors.New("need at least two players with chips")
	ErrInvariant         = errors.New("invariant violated")
)
