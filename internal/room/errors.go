package room

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomClosed        = errors.New("room closed")
	ErrHandInProgress    = errors.New("hand in progress")
	ErrNotStarted        = errors.New("game has not started")
	ErrInvalidBuyIn      = errors.New("invalid buy-in")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNameTaken         = errors.New("name already taken")
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotInRoom         = errors.New("not seated in this room")
	ErrReconnectFailed   = errors.New("reconnect failed")
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrSessionReplaced   = errors.New("seat taken over by another connection")
)
