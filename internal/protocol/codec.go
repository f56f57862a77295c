package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

const maxNameLength = 20

// Marshal serializes a server or client message
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses and validates a client frame
func Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return msg, err
	}
	return msg, nil
}

// DecodeServer parses a server frame on the client side
func DecodeServer(data []byte) (ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return msg, nil
}

// Validate checks the fields required by the message type
func (m *ClientMessage) Validate() error {
	m.PlayerName = strings.TrimSpace(m.PlayerName)
	m.RoomCode = strings.ToUpper(strings.TrimSpace(m.RoomCode))

	switch m.Type {
	case TypeCreateRoom:
		return m.validateSeat()
	case TypeJoinRoom:
		if m.RoomCode == "" {
			return fmt.Errorf("%w: roomCode is required", ErrInvalidMessage)
		}
		return m.validateSeat()
	case TypeSpectateRoom:
		if m.RoomCode == "" {
			return fmt.Errorf("%w: roomCode is required", ErrInvalidMessage)
		}
	case TypePlayerAction:
		if m.Action == "" {
			return fmt.Errorf("%w: action is required", ErrInvalidMessage)
		}
		if m.Amount < 0 {
			return fmt.Errorf("%w: amount cannot be negative", ErrInvalidMessage)
		}
	case TypeReconnect:
		if m.RoomCode == "" || m.PlayerID == "" || m.SessionToken == "" {
			return fmt.Errorf("%w: roomCode, playerId and sessionToken are required", ErrInvalidMessage)
		}
	case TypeSetOptions:
		if m.AutoInsurance == nil && m.RunItTwiceOptIn == nil {
			return fmt.Errorf("%w: no options given", ErrInvalidMessage)
		}
	case TypeStartGame, TypeNewHand, TypeLeaveRoom, TypePing:
	case "":
		return fmt.Errorf("%w: missing type", ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, m.Type)
	}
	return nil
}

func (m *ClientMessage) validateSeat() error {
	if m.PlayerName == "" {
		return fmt.Errorf("%w: playerName is required", ErrInvalidMessage)
	}
	if len([]rune(m.PlayerName)) > maxNameLength {
		return fmt.Errorf("%w: playerName longer than %d characters", ErrInvalidMessage, maxNameLength)
	}
	if m.BuyIn <= 0 {
		return fmt.Errorf("%w: buyIn must be positive", ErrInvalidMessage)
	}
	return nil
}

// NewError builds an ERROR message
func NewError(code string, err error) *Error {
	return &Error{Type: TypeError, Error: err.Error(), Code: code}
}
