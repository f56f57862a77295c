package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/room"
)

// ServerConfig represents the complete server configuration. Every block is
// optional; anything left out falls back to DefaultServerConfig.
type ServerConfig struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Room    *RoomSettings    `hcl:"room,block"`
	Rules   *RulesSettings   `hcl:"rules,block"`
	Ledger  *LedgerSettings  `hcl:"ledger,block"`
	History *HistorySettings `hcl:"history,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address        string   `hcl:"address,optional"`
	Port           int      `hcl:"port,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
	SendBuffer     int      `hcl:"send_buffer,optional"`
}

// RoomSettings configures room lifecycle. Durations use Go syntax ("30s").
type RoomSettings struct {
	MinBuyIn                int    `hcl:"min_buy_in,optional"`
	MaxBuyIn                int    `hcl:"max_buy_in,optional"`
	TurnTimeout             string `hcl:"turn_timeout,optional"`
	DisconnectedTurnTimeout string `hcl:"disconnected_turn_timeout,optional"`
	ReconnectGrace          string `hcl:"reconnect_grace,optional"`
	EmptyRoomGrace          string `hcl:"empty_room_grace,optional"`
	SpectatorDelay          string `hcl:"spectator_delay,optional"`
	AutoNextHand            string `hcl:"auto_next_hand,optional"`
	LogTail                 int    `hcl:"log_tail,optional"`
}

// RulesSettings holds table stakes and house settings
type RulesSettings struct {
	SmallBlind               int  `hcl:"small_blind,optional"`
	BigBlind                 int  `hcl:"big_blind,optional"`
	MaxSeats                 int  `hcl:"max_seats,optional"`
	RakeBasisPoints          int  `hcl:"rake_basis_points,optional"`
	RakeCap                  int  `hcl:"rake_cap,optional"`
	RunItTwiceFeeBasisPoints int  `hcl:"run_it_twice_fee_basis_points,optional"`
	InsuranceCoveragePct     *int `hcl:"insurance_coverage_pct,optional"`
	EquitySamples            int  `hcl:"equity_samples,optional"`
	LogLimit                 int  `hcl:"log_limit,optional"`
}

// LedgerSettings selects the wallet backend and tunes the dispatcher
type LedgerSettings struct {
	Driver         string `hcl:"driver,optional"`
	DSN            string `hcl:"dsn,optional"`
	URL            string `hcl:"url,optional"`
	Token          string `hcl:"token,optional"`
	InitialBalance int    `hcl:"initial_balance,optional"`
	Timeout        string `hcl:"timeout,optional"`
	Workers        int    `hcl:"workers,optional"`
	QueueSize      int    `hcl:"queue_size,optional"`
	MaxAttempts    int    `hcl:"max_attempts,optional"`
	Backoff        string `hcl:"backoff,optional"`
}

// HistorySettings turns on PHH hand history files. Leaving the block out
// disables recording.
type HistorySettings struct {
	Dir       string `hcl:"dir"`
	QueueSize int    `hcl:"queue_size,optional"`
}

const defaultHistoryQueue = 256

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	rc := room.DefaultConfig()
	rules := game.DefaultRules()
	dc := ledger.DefaultDispatcherConfig()
	coverage := rules.InsuranceCoveragePct

	return &ServerConfig{
		Server: &ServerSettings{
			Address:    "0.0.0.0",
			Port:       8080,
			LogLevel:   "info",
			SendBuffer: 256,
		},
		Room: &RoomSettings{
			MinBuyIn:                rc.MinBuyIn,
			MaxBuyIn:                rc.MaxBuyIn,
			TurnTimeout:             rc.TurnTimeout.String(),
			DisconnectedTurnTimeout: rc.DisconnectedTurnTimeout.String(),
			ReconnectGrace:          rc.ReconnectGrace.String(),
			EmptyRoomGrace:          rc.EmptyRoomGrace.String(),
			SpectatorDelay:          rc.SpectatorDelay.String(),
			AutoNextHand:            rc.AutoNextHand.String(),
			LogTail:                 rc.LogTail,
		},
		Rules: &RulesSettings{
			SmallBlind:               rules.SmallBlind,
			BigBlind:                 rules.BigBlind,
			MaxSeats:                 rules.MaxSeats,
			RakeBasisPoints:          rules.RakeBasisPoints,
			RakeCap:                  rules.RakeCap,
			RunItTwiceFeeBasisPoints: rules.RunItTwiceFeeBasisPoints,
			InsuranceCoveragePct:     &coverage,
			EquitySamples:            rules.EquitySamples,
			LogLimit:                 rules.LogLimit,
		},
		Ledger: &LedgerSettings{
			Driver:         "memory",
			InitialBalance: 10000,
			Timeout:        dc.Timeout.String(),
			Workers:        dc.Workers,
			QueueSize:      dc.QueueSize,
			MaxAttempts:    dc.MaxAttempts,
			Backoff:        dc.Backoff.String(),
		},
	}
}

// LoadServerConfig loads server configuration from HCL file. A missing file
// yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultServerConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseServerConfig(src, filename)
}

// ParseServerConfig decodes HCL source and fills in defaults
func ParseServerConfig(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults(DefaultServerConfig())
	return &config, nil
}

func (c *ServerConfig) applyDefaults(d *ServerConfig) {
	if c.Server == nil {
		c.Server = d.Server
	} else {
		s := c.Server
		s.Address = orString(s.Address, d.Server.Address)
		s.Port = orInt(s.Port, d.Server.Port)
		s.LogLevel = orString(s.LogLevel, d.Server.LogLevel)
		s.SendBuffer = orInt(s.SendBuffer, d.Server.SendBuffer)
	}

	if c.Room == nil {
		c.Room = d.Room
	} else {
		r := c.Room
		r.MinBuyIn = orInt(r.MinBuyIn, d.Room.MinBuyIn)
		r.MaxBuyIn = orInt(r.MaxBuyIn, d.Room.MaxBuyIn)
		r.TurnTimeout = orString(r.TurnTimeout, d.Room.TurnTimeout)
		r.DisconnectedTurnTimeout = orString(r.DisconnectedTurnTimeout, d.Room.DisconnectedTurnTimeout)
		r.ReconnectGrace = orString(r.ReconnectGrace, d.Room.ReconnectGrace)
		r.EmptyRoomGrace = orString(r.EmptyRoomGrace, d.Room.EmptyRoomGrace)
		r.SpectatorDelay = orString(r.SpectatorDelay, d.Room.SpectatorDelay)
		r.AutoNextHand = orString(r.AutoNextHand, d.Room.AutoNextHand)
		r.LogTail = orInt(r.LogTail, d.Room.LogTail)
	}

	if c.Rules == nil {
		c.Rules = d.Rules
	} else {
		r := c.Rules
		r.SmallBlind = orInt(r.SmallBlind, d.Rules.SmallBlind)
		r.BigBlind = orInt(r.BigBlind, d.Rules.BigBlind)
		r.MaxSeats = orInt(r.MaxSeats, d.Rules.MaxSeats)
		r.EquitySamples = orInt(r.EquitySamples, d.Rules.EquitySamples)
		r.LogLimit = orInt(r.LogLimit, d.Rules.LogLimit)
		if r.InsuranceCoveragePct == nil {
			r.InsuranceCoveragePct = d.Rules.InsuranceCoveragePct
		}
	}

	if c.Ledger == nil {
		c.Ledger = d.Ledger
	} else {
		l := c.Ledger
		l.Driver = orString(l.Driver, d.Ledger.Driver)
		l.InitialBalance = orInt(l.InitialBalance, d.Ledger.InitialBalance)
		l.Timeout = orString(l.Timeout, d.Ledger.Timeout)
		l.Workers = orInt(l.Workers, d.Ledger.Workers)
		l.QueueSize = orInt(l.QueueSize, d.Ledger.QueueSize)
		l.MaxAttempts = orInt(l.MaxAttempts, d.Ledger.MaxAttempts)
		l.Backoff = orString(l.Backoff, d.Ledger.Backoff)
	}

	if c.History != nil {
		c.History.QueueSize = orInt(c.History.QueueSize, defaultHistoryQueue)
	}
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if !validLogLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	if c.Server.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be positive")
	}

	rc, err := c.RoomConfig()
	if err != nil {
		return err
	}
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("room: %w", err)
	}

	l := c.Ledger
	switch strings.ToLower(l.Driver) {
	case "memory":
	case "sqlite", "postgres":
		if l.DSN == "" {
			return fmt.Errorf("ledger: driver %s requires dsn", l.Driver)
		}
	case "http":
		if l.URL == "" {
			return fmt.Errorf("ledger: driver http requires url")
		}
	default:
		return fmt.Errorf("ledger: unknown driver %q", l.Driver)
	}
	if l.InitialBalance < 0 {
		return fmt.Errorf("ledger: initial balance cannot be negative")
	}
	dc, err := c.DispatcherConfig()
	if err != nil {
		return err
	}
	if dc.Workers < 1 || dc.QueueSize < 1 || dc.MaxAttempts < 1 {
		return fmt.Errorf("ledger: workers, queue size and max attempts must be positive")
	}

	if h := c.History; h != nil {
		if strings.TrimSpace(h.Dir) == "" {
			return fmt.Errorf("history: dir is required")
		}
		if h.QueueSize < 1 {
			return fmt.Errorf("history: queue size must be positive")
		}
	}
	return nil
}

// RoomConfig converts the room and rules blocks into room settings
func (c *ServerConfig) RoomConfig() (room.Config, error) {
	rc := room.Config{
		Rules: game.Rules{
			SmallBlind:               c.Rules.SmallBlind,
			BigBlind:                 c.Rules.BigBlind,
			MaxSeats:                 c.Rules.MaxSeats,
			RakeBasisPoints:          c.Rules.RakeBasisPoints,
			RakeCap:                  c.Rules.RakeCap,
			RunItTwiceFeeBasisPoints: c.Rules.RunItTwiceFeeBasisPoints,
			EquitySamples:            c.Rules.EquitySamples,
			LogLimit:                 c.Rules.LogLimit,
		},
		MinBuyIn: c.Room.MinBuyIn,
		MaxBuyIn: c.Room.MaxBuyIn,
		LogTail:  c.Room.LogTail,
	}
	if c.Rules.InsuranceCoveragePct != nil {
		rc.Rules.InsuranceCoveragePct = *c.Rules.InsuranceCoveragePct
	}

	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"turn_timeout", c.Room.TurnTimeout, &rc.TurnTimeout},
		{"disconnected_turn_timeout", c.Room.DisconnectedTurnTimeout, &rc.DisconnectedTurnTimeout},
		{"reconnect_grace", c.Room.ReconnectGrace, &rc.ReconnectGrace},
		{"empty_room_grace", c.Room.EmptyRoomGrace, &rc.EmptyRoomGrace},
		{"spectator_delay", c.Room.SpectatorDelay, &rc.SpectatorDelay},
		{"auto_next_hand", c.Room.AutoNextHand, &rc.AutoNextHand},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return room.Config{}, fmt.Errorf("room: invalid %s %q: %w", d.name, d.src, err)
		}
		*d.dst = v
	}
	return rc, nil
}

// LedgerOptions returns the backend selection for ledger.Open
func (c *ServerConfig) LedgerOptions() (ledger.Options, error) {
	timeout, err := time.ParseDuration(c.Ledger.Timeout)
	if err != nil {
		return ledger.Options{}, fmt.Errorf("ledger: invalid timeout %q: %w", c.Ledger.Timeout, err)
	}
	return ledger.Options{
		Driver:         c.Ledger.Driver,
		DSN:            c.Ledger.DSN,
		URL:            c.Ledger.URL,
		Token:          c.Ledger.Token,
		InitialBalance: c.Ledger.InitialBalance,
		Timeout:        timeout,
	}, nil
}

// DispatcherConfig returns the retry and worker settings for the ledger dispatcher
func (c *ServerConfig) DispatcherConfig() (ledger.DispatcherConfig, error) {
	opts, err := c.LedgerOptions()
	if err != nil {
		return ledger.DispatcherConfig{}, err
	}
	backoff, err := time.ParseDuration(c.Ledger.Backoff)
	if err != nil {
		return ledger.DispatcherConfig{}, fmt.Errorf("ledger: invalid backoff %q: %w", c.Ledger.Backoff, err)
	}
	return ledger.DispatcherConfig{
		Workers:     c.Ledger.Workers,
		QueueSize:   c.Ledger.QueueSize,
		MaxAttempts: c.Ledger.MaxAttempts,
		Backoff:     backoff,
		Timeout:     opts.Timeout,
	}, nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
