package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Command is one parsed input line
type Command struct {
	Msg       *protocol.ClientMessage
	Quit      bool
	Help      bool
	Reconnect bool
}

// HelpText lists the commands the input line understands
var HelpText = []string{
	"create NAME BUYIN [USERID]     open a room and sit down",
	"join CODE NAME BUYIN [USERID]  sit down in a room",
	"watch CODE                     spectate a room",
	"start | next                   deal the first / next hand (host)",
	"fold | check | call | allin    act",
	"raise N                        raise to N chips",
	"insurance on|off               all-in insurance",
	"twice on|off                   run it twice",
	"leave                          cash out",
	"reconnect | ping | help | quit",
}

// ParseCommand turns an input line into a command
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input, try help", ErrUsage)
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	msg := func(m protocol.ClientMessage) (Command, error) {
		return Command{Msg: &m}, nil
	}

	switch name {
	case "quit", "exit", "q":
		return Command{Quit: true}, nil
	case "help", "?":
		return Command{Help: true}, nil
	case "reconnect":
		return Command{Reconnect: true}, nil
	case "ping":
		return msg(protocol.ClientMessage{Type: protocol.TypePing})

	case "create":
		if len(args) < 2 || len(args) > 3 {
			return Command{}, fmt.Errorf("%w: create NAME BUYIN [USERID]", ErrUsage)
		}
		buyIn, err := parseAmount(args[1])
		if err != nil {
			return Command{}, err
		}
		m := protocol.ClientMessage{Type: protocol.TypeCreateRoom, PlayerName: args[0], BuyIn: buyIn}
		if len(args) == 3 {
			m.UserID = args[2]
		}
		return msg(m)

	case "join":
		if len(args) < 3 || len(args) > 4 {
			return Command{}, fmt.Errorf("%w: join CODE NAME BUYIN [USERID]", ErrUsage)
		}
		buyIn, err := parseAmount(args[2])
		if err != nil {
			return Command{}, err
		}
		m := protocol.ClientMessage{Type: protocol.TypeJoinRoom, RoomCode: strings.ToUpper(args[0]), PlayerName: args[1], BuyIn: buyIn}
		if len(args) == 4 {
			m.UserID = args[3]
		}
		return msg(m)

	case "watch", "spectate":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: watch CODE", ErrUsage)
		}
		return msg(protocol.ClientMessage{Type: protocol.TypeSpectateRoom, RoomCode: strings.ToUpper(args[0])})

	case "start":
		return msg(protocol.ClientMessage{Type: protocol.TypeStartGame})
	case "next", "deal":
		return msg(protocol.ClientMessage{Type: protocol.TypeNewHand})
	case "leave":
		return msg(protocol.ClientMessage{Type: protocol.TypeLeaveRoom})

	case "fold", "check", "call", "allin", "all-in":
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: %s takes no amount", ErrUsage, name)
		}
		if name == "all-in" {
			name = "allin"
		}
		return msg(protocol.ClientMessage{Type: protocol.TypePlayerAction, Action: name})

	case "raise", "bet":
		// accepts "raise to 40"
		if len(args) == 2 && strings.EqualFold(args[0], "to") {
			args = args[1:]
		}
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: raise N", ErrUsage)
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return Command{}, err
		}
		return msg(protocol.ClientMessage{Type: protocol.TypePlayerAction, Action: "raise", Amount: amount})

	case "insurance", "twice":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: %s on|off", ErrUsage, name)
		}
		on, err := parseToggle(args[0])
		if err != nil {
			return Command{}, err
		}
		m := protocol.ClientMessage{Type: protocol.TypeSetOptions}
		if name == "insurance" {
			m.AutoInsurance = &on
		} else {
			m.RunItTwiceOptIn = &on
		}
		return msg(m)
	}
	return Command{}, fmt.Errorf("%w: %q, try help", ErrUnknownCommand, name)
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "$"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive amount", ErrUsage, s)
	}
	return n, nil
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
}
