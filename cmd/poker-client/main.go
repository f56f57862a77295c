package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/rishabpremish/Card-Games-sub000/internal/client"
	"github.com/rishabpremish/Card-Games-sub000/internal/tui"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"http://localhost:8080" help:"Server URL to connect to"`
	LogLevel string `short:"l" long:"log-level" default:"info" help:"Log level"`
	LogFile  string `long:"log-file" default:"poker-client.log" help:"Log file path"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logFile, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.NewWithOptions(logFile, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(CLI.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Starting Poker Client", "server", CLI.Server)

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	link, err := client.Dial(dialCtx, CLI.Server, logger)
	cancel()
	if err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = link.Close() }()

	p := tea.NewProgram(tui.NewModel(link, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI failed", "error", err)
		fmt.Printf("Error: %v\n", err)
		ctx.Exit(1)
	}
}
