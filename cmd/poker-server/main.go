package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/rishabpremish/Card-Games-sub000/internal/handhistory"
	"github.com/rishabpremish/Card-Games-sub000/internal/ledger"
	"github.com/rishabpremish/Card-Games-sub000/internal/room"
	"github.com/rishabpremish/Card-Games-sub000/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"poker-server.hcl" help:"Path to HCL configuration file"`
	Address  string `short:"a" long:"address" help:"Address to bind to (overrides config)"`
	Port     int    `short:"p" long:"port" help:"Port to listen on (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Ledger   string `long:"ledger" help:"Ledger driver: memory, sqlite, postgres or http (overrides config)"`
	DSN      string `long:"dsn" help:"Ledger database DSN (overrides config)"`
}

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Address != "" {
		cfg.Server.Address = CLI.Address
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Ledger != "" {
		cfg.Ledger.Driver = CLI.Ledger
	}
	if CLI.DSN != "" {
		cfg.Ledger.DSN = CLI.DSN
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}

func run(cfg *server.ServerConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roomCfg, err := cfg.RoomConfig()
	if err != nil {
		return err
	}
	ledgerOpts, err := cfg.LedgerOptions()
	if err != nil {
		return err
	}
	dispatchCfg, err := cfg.DispatcherConfig()
	if err != nil {
		return err
	}

	backend, err := ledger.Open(ctx, ledgerOpts, nil)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	wallet := ledger.NewDispatcher(backend, nil, logger, dispatchCfg)

	var opts []room.ManagerOption
	var history *handhistory.Recorder
	if cfg.History != nil {
		history, err = handhistory.NewRecorder(cfg.History.Dir, cfg.History.QueueSize, logger)
		if err != nil {
			_ = wallet.Close()
			return err
		}
		opts = append(opts, room.WithHandHistory(history))
		logger.Info("Recording hand histories", "dir", cfg.History.Dir)
	}

	rooms := room.NewManager(roomCfg, wallet, logger, opts...)
	srv := server.NewServer(cfg.GetServerAddress(), rooms, logger,
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		server.WithSendBuffer(cfg.Server.SendBuffer),
	)

	logger.Info("Starting Poker Server",
		"addr", cfg.GetServerAddress(),
		"ledger", ledgerOpts.Driver,
		"blinds", fmt.Sprintf("%d/%d", roomCfg.Rules.SmallBlind, roomCfg.Rules.BigBlind),
		"buyIn", fmt.Sprintf("%d-%d", roomCfg.MinBuyIn, roomCfg.MaxBuyIn))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Rooms first so seated players are cashed out and told why
		if err := rooms.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Rooms did not close cleanly", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}
		if history != nil {
			_ = history.Close()
		}
		return wallet.Close()
	})
	return g.Wait()
}
