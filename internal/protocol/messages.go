package protocol

import (
	"time"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/game"
)

const (
	// Client -> Server
	TypeCreateRoom   = "CREATE_ROOM"
	TypeJoinRoom     = "JOIN_ROOM"
	TypeSpectateRoom = "SPECTATE_ROOM"
	TypeStartGame    = "START_GAME"
	TypePlayerAction = "PLAYER_ACTION"
	TypeNewHand      = "NEW_HAND"
	TypeSetOptions   = "SET_OPTIONS"
	TypeReconnect    = "RECONNECT"
	TypeLeaveRoom    = "LEAVE_ROOM"
	TypePing         = "PING"

	// Server -> Client
	TypeRoomCreated        = "ROOM_CREATED"
	TypeRoomJoined         = "ROOM_JOINED"
	TypeSpectating         = "SPECTATING"
	TypeGameStarted        = "GAME_STARTED"
	TypeGameUpdate         = "GAME_UPDATE"
	TypeReconnected        = "RECONNECTED"
	TypeLeftRoom           = "LEFT_ROOM"
	TypePong               = "PONG"
	TypeError              = "ERROR"
	TypePlayerJoined       = "PLAYER_JOINED"
	TypePlayerLeft         = "PLAYER_LEFT"
	TypePlayerDisconnected = "PLAYER_DISCONNECTED"
	TypePlayerReconnected  = "PLAYER_RECONNECTED"
	TypeRoomClosed         = "ROOM_CLOSED"
)

// Error codes carried in ERROR messages
const (
	CodeInvalidMessage     = "invalid_message"
	CodeUnknownMessageType = "unknown_message_type"
	CodeNotInRoom          = "not_in_room"
	CodeAlreadyInRoom      = "already_in_room"
	CodeActionFailed       = "action_failed"
	CodeRoomNotFound       = "room_not_found"
	CodeRoomFull           = "room_full"
	CodeHandInProgress     = "hand_in_progress"
	CodeInsufficientFunds  = "insufficient_funds"
	CodeInvalidBuyIn       = "invalid_buy_in"
	CodeNameTaken          = "name_taken"
	CodeNotHost            = "not_host"
	CodeReconnectFailed    = "reconnect_failed"
	CodeWalletUnavailable  = "wallet_unavailable"
	CodeSessionReplaced    = "session_replaced"
	CodeInternal           = "internal_error"
)

// Client -> Server Messages

// ClientMessage is the single inbound shape; fields not used by a type are ignored
type ClientMessage struct {
	Type            string `json:"type"`
	PlayerName      string `json:"playerName,omitempty"`
	BuyIn           int    `json:"buyIn,omitempty"`
	RoomCode        string `json:"roomCode,omitempty"`
	UserID          string `json:"userId,omitempty"`
	Action          string `json:"action,omitempty"`
	Amount          int    `json:"amount,omitempty"`
	PlayerID        string `json:"playerId,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty"`
	AutoInsurance   *bool  `json:"autoInsurance,omitempty"`
	RunItTwiceOptIn *bool  `json:"runItTwiceOptIn,omitempty"`
}

// Server -> Client Messages

// Seated answers CREATE_ROOM, JOIN_ROOM and RECONNECT
type Seated struct {
	Type         string     `json:"type"`
	PlayerID     string     `json:"playerId"`
	RoomCode     string     `json:"roomCode"`
	SessionToken string     `json:"sessionToken,omitempty"`
	GameState    *GameState `json:"gameState"`
}

// Spectating answers SPECTATE_ROOM
type Spectating struct {
	Type      string     `json:"type"`
	RoomCode  string     `json:"roomCode"`
	GameState *GameState `json:"gameState"`
}

// GameUpdate carries a fresh snapshot (GAME_STARTED, GAME_UPDATE)
type GameUpdate struct {
	Type      string     `json:"type"`
	GameState *GameState `json:"gameState"`
}

// PlayerEvent announces membership changes to the rest of the room
type PlayerEvent struct {
	Type      string     `json:"type"`
	PlayerID  string     `json:"playerId"`
	Name      string     `json:"name"`
	GameState *GameState `json:"gameState"`
}

// LeftRoom confirms LEAVE_ROOM
type LeftRoom struct {
	Type          string `json:"type"`
	CashOutAmount int    `json:"cashOutAmount"`
}

// Pong answers PING
type Pong struct {
	Type string `json:"type"`
}

// Error is sent only to the session that caused it
type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RoomClosed tells members the room no longer exists
type RoomClosed struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ServerMessage is the union of every server message, used by clients to decode
type ServerMessage struct {
	Type          string     `json:"type"`
	PlayerID      string     `json:"playerId,omitempty"`
	RoomCode      string     `json:"roomCode,omitempty"`
	SessionToken  string     `json:"sessionToken,omitempty"`
	Name          string     `json:"name,omitempty"`
	GameState     *GameState `json:"gameState,omitempty"`
	CashOutAmount int        `json:"cashOutAmount,omitempty"`
	Error         string     `json:"error,omitempty"`
	Code          string     `json:"code,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// Snapshot types

// GameState is one recipient's view of a room
type GameState struct {
	RoomCode           string          `json:"roomCode"`
	HostID             string          `json:"hostId"`
	GameState          string          `json:"gameState"`
	CommunityCards     []deck.Card     `json:"communityCards"`
	SecondBoard        []deck.Card     `json:"secondBoard,omitempty"`
	Pot                int             `json:"pot"`
	CurrentBet         int             `json:"currentBet"`
	MinRaise           int             `json:"minRaise"`
	DealerIndex        int             `json:"dealerIndex"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	Winners            []game.Winner   `json:"winners"`
	HandNumber         int             `json:"handNumber"`
	ActionLog          []game.LogEntry `json:"actionLog"`
	SmallBlind         int             `json:"smallBlind"`
	BigBlind           int             `json:"bigBlind"`
	Players            []PlayerView    `json:"players"`
	SpectatorCount     int             `json:"spectatorCount"`
	TurnDeadline       *time.Time      `json:"turnDeadline"`
	You                *YouView        `json:"you,omitempty"`
}

// PlayerView is a seat as seen by one recipient. Cards is always two long;
// a nil entry is a card the recipient may not see.
type PlayerView struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Chips           int          `json:"chips"`
	Bet             int          `json:"bet"`
	TotalBet        int          `json:"totalBet"`
	Folded          bool         `json:"folded"`
	IsAllIn         bool         `json:"isAllIn"`
	IsConnected     bool         `json:"isConnected"`
	SeatIndex       int          `json:"seatIndex"`
	Cards           []*deck.Card `json:"cards"`
	AutoInsurance   bool         `json:"autoInsurance"`
	RunItTwiceOptIn bool         `json:"runItTwiceOptIn"`
	InHand          bool         `json:"inHand"`
}

// YouView is only present in a seated player's own snapshot
type YouView struct {
	PlayerID     string   `json:"playerId"`
	ToCall       int      `json:"toCall"`
	MinRaiseTo   int      `json:"minRaiseTo"`
	MaxRaiseTo   int      `json:"maxRaiseTo"`
	ValidActions []string `json:"validActions"`
}
