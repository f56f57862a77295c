package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())

	rc, err := cfg.RoomConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, rc.TurnTimeout)
	assert.Equal(t, 10*time.Second, rc.SpectatorDelay)
	assert.Equal(t, 5, rc.Rules.SmallBlind)
	assert.Equal(t, 50, rc.Rules.InsuranceCoveragePct)
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

func TestLoadServerConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "poker-server.hcl")
	src := `
server {
  port            = 9000
  log_level       = "debug"
  allowed_origins = ["casino.example"]
}

room {
  max_buy_in      = 50000
  turn_timeout    = "45s"
  spectator_delay = "0s"
}

rules {
  small_blind            = 25
  big_blind              = 50
  rake_basis_points      = 500
  rake_cap               = 300
  insurance_coverage_pct = 0
}

ledger {
  driver = "sqlite"
  dsn    = "file:wallet.db"
  backoff = "1s"
}

history {
  dir = "hands"
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	assert.Equal(t, []string{"casino.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 256, cfg.Server.SendBuffer)

	rc, err := cfg.RoomConfig()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, rc.TurnTimeout)
	assert.Equal(t, 5*time.Second, rc.DisconnectedTurnTimeout)
	assert.Zero(t, rc.SpectatorDelay)
	assert.Equal(t, 100, rc.MinBuyIn)
	assert.Equal(t, 50000, rc.MaxBuyIn)
	assert.Equal(t, 25, rc.Rules.SmallBlind)
	assert.Equal(t, 500, rc.Rules.RakeBasisPoints)
	assert.Zero(t, rc.Rules.InsuranceCoveragePct, "explicit zero is kept")
	assert.Equal(t, 8, rc.Rules.MaxSeats)

	opts, err := cfg.LedgerOptions()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", opts.Driver)
	assert.Equal(t, "file:wallet.db", opts.DSN)
	assert.Equal(t, 10000, opts.InitialBalance)

	dc, err := cfg.DispatcherConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Second, dc.Backoff)
	assert.Equal(t, 5, dc.MaxAttempts)

	require.NotNil(t, cfg.History)
	assert.Equal(t, "hands", cfg.History.Dir)
	assert.Equal(t, 256, cfg.History.QueueSize)
}

func TestParseServerConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseServerConfig([]byte(`server {`), "bad.hcl")
	assert.ErrorContains(t, err, "parse")

	_, err = ParseServerConfig([]byte(`server { port = "eighty" }`), "bad.hcl")
	assert.ErrorContains(t, err, "decode")

	_, err = ParseServerConfig([]byte(`tables { }`), "bad.hcl")
	assert.Error(t, err)
}

func TestServerConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *ServerConfig)
		wantErr string
	}{
		{name: "bad port", mutate: func(c *ServerConfig) { c.Server.Port = 70000 }, wantErr: "invalid port"},
		{name: "bad log level", mutate: func(c *ServerConfig) { c.Server.LogLevel = "loud" }, wantErr: "log level"},
		{name: "bad duration", mutate: func(c *ServerConfig) { c.Room.TurnTimeout = "soon" }, wantErr: "turn_timeout"},
		{name: "blinds inverted", mutate: func(c *ServerConfig) { c.Rules.SmallBlind = 20 }, wantErr: "small blind"},
		{name: "too many seats", mutate: func(c *ServerConfig) { c.Rules.MaxSeats = 9 }, wantErr: "max seats"},
		{name: "buy-in range", mutate: func(c *ServerConfig) { c.Room.MaxBuyIn = 50 }, wantErr: "max buy-in"},
		{name: "disconnected timeout too long", mutate: func(c *ServerConfig) { c.Room.DisconnectedTurnTimeout = "1m" }, wantErr: "disconnected turn timeout"},
		{name: "unknown driver", mutate: func(c *ServerConfig) { c.Ledger.Driver = "redis" }, wantErr: "unknown driver"},
		{name: "sqlite needs dsn", mutate: func(c *ServerConfig) { c.Ledger.Driver = "sqlite" }, wantErr: "requires dsn"},
		{name: "http needs url", mutate: func(c *ServerConfig) { c.Ledger.Driver = "http" }, wantErr: "requires url"},
		{name: "bad backoff", mutate: func(c *ServerConfig) { c.Ledger.Backoff = "-" }, wantErr: "backoff"},
		{name: "history without dir", mutate: func(c *ServerConfig) { c.History = &HistorySettings{Dir: " ", QueueSize: 1} }, wantErr: "dir is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
