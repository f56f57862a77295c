package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// Conn is the server link the model drives
type Conn interface {
	Send(msg protocol.ClientMessage) error
	// Reconnect reclaims the current seat, redialing if the socket dropped
	Reconnect() error
	// Messages is closed when the socket ends
	Messages() <-chan protocol.ServerMessage
}

type serverMsg struct{ msg protocol.ServerMessage }

type connClosedMsg struct{}

// Model is the Bubble Tea model for the terminal client
type Model struct {
	conn   Conn
	logger *log.Logger

	logViewport viewport.Model
	input       textinput.Model

	state      *protocol.GameState
	roomCode   string
	playerID   string
	spectating bool
	connected  bool

	lines    []string
	status   string
	isError  bool
	lastSeq  int
	lastHand int

	width, height int
	initialized   bool
	quitting      bool
}

// NewModel creates a model reading from and writing to conn
func NewModel(conn Conn, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "create NAME BUYIN, join CODE NAME BUYIN, call, raise 40, fold... (help)"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		conn:        conn,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		connected:   true,
		status:      "Connected. Type help for commands.",
	}
}

// Init starts listening for server messages
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.conn.Messages()))
}

func listen(ch <-chan protocol.ServerMessage) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return connClosedMsg{}
		}
		return serverMsg{msg: msg}
	}
}

// Update handles input and server messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			line := m.input.Value()
			m.input.SetValue("")
			if cmd := m.submit(line); cmd != nil {
				return m, cmd
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}

	case serverMsg:
		m.handleServer(msg.msg)
		return m, listen(m.conn.Messages())

	case connClosedMsg:
		m.connected = false
		m.setError("Connection lost. Type reconnect to reclaim your seat.")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit runs one input line; the returned command may be nil
func (m *Model) submit(line string) tea.Cmd {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cmd, err := ParseCommand(line)
	if err != nil {
		m.setError(err.Error())
		return nil
	}

	switch {
	case cmd.Quit:
		m.quitting = true
		if m.roomCode != "" && m.connected {
			_ = m.conn.Send(protocol.ClientMessage{Type: protocol.TypeLeaveRoom})
		}
		return tea.Quit
	case cmd.Help:
		m.addLine(HandInfoStyle.Render("Commands:"))
		for _, h := range HelpText {
			m.addLine("  " + h)
		}
		return nil
	case cmd.Reconnect:
		wasConnected := m.connected
		if err := m.conn.Reconnect(); err != nil {
			m.setError("Reconnect failed: " + err.Error())
			return nil
		}
		m.connected = true
		m.setStatus("Reconnecting...")
		if !wasConnected {
			return listen(m.conn.Messages())
		}
		return nil
	}

	if !m.connected {
		m.setError("Not connected. Type reconnect or quit.")
		return nil
	}
	if err := m.conn.Send(*cmd.Msg); err != nil {
		m.logger.Warn("Send failed", "type", cmd.Msg.Type, "error", err)
		m.setError("Send failed: " + err.Error())
		return nil
	}
	m.isError = false
	return nil
}

func (m *Model) handleServer(msg protocol.ServerMessage) {
	switch msg.Type {
	case protocol.TypeRoomCreated, protocol.TypeRoomJoined:
		m.enterRoom(msg.RoomCode, msg.PlayerID, false)
		m.setStatus(fmt.Sprintf("Seated in room %s. Share the code to invite players.", msg.RoomCode))
	case protocol.TypeSpectating:
		m.enterRoom(msg.RoomCode, "", true)
		m.setStatus("Watching room " + msg.RoomCode)
	case protocol.TypeReconnected:
		m.enterRoom(msg.RoomCode, msg.PlayerID, false)
		m.setStatus("Seat reclaimed in room " + msg.RoomCode)
	case protocol.TypeGameStarted:
		m.addLine(SuccessStyle.Render("Game started"))
	case protocol.TypePlayerJoined:
		m.addLine(InfoStyle.Render(msg.Name + " joined"))
	case protocol.TypePlayerLeft:
		m.addLine(InfoStyle.Render(msg.Name + " left"))
	case protocol.TypePlayerDisconnected:
		m.addLine(InfoStyle.Render(msg.Name + " disconnected"))
	case protocol.TypePlayerReconnected:
		m.addLine(InfoStyle.Render(msg.Name + " reconnected"))
	case protocol.TypeLeftRoom:
		m.leaveRoom()
		m.setStatus(fmt.Sprintf("Left the room with %d chips", msg.CashOutAmount))
	case protocol.TypeRoomClosed:
		m.leaveRoom()
		m.setError("Room closed: " + msg.Reason)
	case protocol.TypePong:
		m.setStatus("pong")
	case protocol.TypeError:
		m.setError(msg.Error)
	}

	if msg.GameState != nil && m.roomCode != "" {
		m.applyState(msg.GameState)
	}
}

func (m *Model) enterRoom(code, playerID string, spectating bool) {
	if code != m.roomCode {
		m.lastSeq = 0
		m.lastHand = 0
		m.addLine(HeaderStyle.Render(" Room " + code + " "))
	}
	m.roomCode = code
	m.playerID = playerID
	m.spectating = spectating
}

func (m *Model) leaveRoom() {
	m.state = nil
	m.roomCode = ""
	m.playerID = ""
	m.spectating = false
}

// applyState replaces the table and appends unseen log entries
func (m *Model) applyState(gs *protocol.GameState) {
	m.state = gs
	for _, e := range gs.ActionLog {
		if e.Seq <= m.lastSeq {
			continue
		}
		if e.HandNumber > m.lastHand {
			m.lastHand = e.HandNumber
			m.addLine(HandInfoStyle.Render(fmt.Sprintf("Hand #%d", e.HandNumber)))
		}
		m.addLine(DescribeEntry(e))
		m.lastSeq = e.Seq
	}
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.isError = true
}

// State returns the last table snapshot received, or nil outside a room
func (m *Model) State() *protocol.GameState { return m.state }

// Status returns the status line text
func (m *Model) Status() string { return m.status }

// Lines returns the log lines shown so far
func (m *Model) Lines() []string { return m.lines }

// RoomCode returns the room the model is in, if any
func (m *Model) RoomCode() string { return m.roomCode }

// View renders the log, the table and the input
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := focusedPaneStyle.
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	tableContent := RenderTable(m.state)
	tableWidth := max(lipgloss.Width(tableContent), 40)
	topHeight := max(m.height-actionHeight-4, 1)
	tablePane := paneStyle.
		Width(tableWidth).
		Height(topHeight).
		Render(tableContent)

	logWidth := max(m.width-tableWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = topHeight
	if !m.initialized && logWidth > 1 && topHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}
	logPane := paneStyle.
		Width(logWidth).
		Height(topHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, tablePane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderActionPane() string {
	var b strings.Builder
	if m.isError {
		b.WriteString(ErrorStyle.Render(m.status))
	} else {
		b.WriteString(InfoStyle.Render(m.status))
	}
	b.WriteString("\n")
	if m.spectating {
		b.WriteString(InfoStyle.Render("Spectating (delayed view)"))
		b.WriteString("\n")
	} else if prompt := RenderPrompt(m.state); prompt != "" {
		b.WriteString(prompt)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}
