package tui

import (
	"fmt"
	"strings"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/game"
	"github.com/rishabpremish/Card-Games-sub000/internal/protocol"
)

// FormatCard renders a card with its suit colour. nil is a hidden card.
func FormatCard(c *deck.Card) string {
	if c == nil {
		return HiddenCardStyle.Render("??")
	}
	if c.Suit.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return InfoStyle.Render("--")
	}
	out := make([]string, len(cards))
	for i := range cards {
		out[i] = FormatCard(&cards[i])
	}
	return strings.Join(out, " ")
}

// RenderTable draws the seats, board and pot as seen by the viewer
func RenderTable(gs *protocol.GameState) string {
	if gs == nil {
		return InfoStyle.Render("Not in a room. Type help for commands.")
	}
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  blinds %d/%d",
		HeaderStyle.Render(" Room "+gs.RoomCode+" "),
		HandInfoStyle.Render(fmt.Sprintf("hand #%d %s", gs.HandNumber, gs.GameState)),
		gs.SmallBlind, gs.BigBlind)
	if gs.SpectatorCount > 0 {
		fmt.Fprintf(&b, "  %s", InfoStyle.Render(fmt.Sprintf("%d watching", gs.SpectatorCount)))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Board: %s", formatCards(gs.CommunityCards))
	if len(gs.SecondBoard) > 0 {
		fmt.Fprintf(&b, "  |  %s", formatCards(gs.SecondBoard))
	}
	b.WriteString("\n")
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: %d", gs.Pot)))
	if gs.CurrentBet > 0 {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: %d", gs.CurrentBet)))
	}
	b.WriteString("\n\n")

	for i, p := range gs.Players {
		b.WriteString(renderSeat(gs, i, p))
		b.WriteString("\n")
	}

	if len(gs.Winners) > 0 {
		b.WriteString("\n")
		for _, w := range gs.Winners {
			line := fmt.Sprintf("%s wins %d", w.Name, w.Amount)
			if w.Hand != nil {
				line += " with " + w.Hand.Name
			}
			b.WriteString(SuccessStyle.Render(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderSeat(gs *protocol.GameState, i int, p protocol.PlayerView) string {
	marker := "  "
	if i == gs.CurrentPlayerIndex {
		marker = ActionsStyle.Render("▶ ")
	}
	button := "   "
	if i == gs.DealerIndex && gs.GameState != "waiting" {
		button = InfoStyle.Render("(D)")
	}
	host := ""
	if p.ID == gs.HostID {
		host = InfoStyle.Render(" host")
	}

	cards := ""
	if p.InHand {
		parts := make([]string, len(p.Cards))
		for i, c := range p.Cards {
			parts[i] = FormatCard(c)
		}
		cards = strings.Join(parts, " ")
	}

	var flags []string
	switch {
	case p.Folded:
		flags = append(flags, "folded")
	case p.IsAllIn:
		flags = append(flags, "all-in")
	}
	if !p.IsConnected {
		flags = append(flags, "away")
	}
	status := ""
	if len(flags) > 0 {
		status = InfoStyle.Render(" [" + strings.Join(flags, ", ") + "]")
	}

	name := PlayerInfoStyle.Render(p.Name)
	if gs.You != nil && p.ID == gs.You.PlayerID {
		name = HandInfoStyle.Render(p.Name + " (you)")
	}

	line := fmt.Sprintf("%s%s %s  %d chips", marker, button, name, p.Chips)
	if p.Bet > 0 {
		line += fmt.Sprintf("  bet %d", p.Bet)
	}
	if cards != "" {
		line += "  " + cards
	}
	return line + host + status
}

// RenderPrompt describes what the viewer may do now
func RenderPrompt(gs *protocol.GameState) string {
	if gs == nil || gs.You == nil {
		return ""
	}
	you := gs.You
	if len(you.ValidActions) == 0 {
		if gs.GameState == "waiting" || gs.GameState == "showdown" {
			return HandInfoStyle.Render("Between hands")
		}
		return HandInfoStyle.Render("Waiting...")
	}

	actions := make([]string, 0, len(you.ValidActions))
	for _, a := range you.ValidActions {
		switch a {
		case "fold":
			actions = append(actions, ErrorStyle.Render("[fold]"))
		case "check":
			actions = append(actions, SuccessStyle.Render("[check]"))
		case "call":
			actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call %d]", you.ToCall)))
		case "raise":
			actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise %d-%d]", you.MinRaiseTo, you.MaxRaiseTo)))
		case "allin":
			actions = append(actions, WarningStyle.Render(fmt.Sprintf("[allin %d]", you.MaxRaiseTo)))
		}
	}
	return ActionsStyle.Render("Your turn: " + strings.Join(actions, " "))
}

// DescribeEntry renders one action log entry as a line of text
func DescribeEntry(e game.LogEntry) string {
	switch e.Type {
	case game.EntryBlind:
		return fmt.Sprintf("%s posts blind %d", e.Name, e.Amount)
	case game.EntryFold:
		if e.Note != "" {
			return fmt.Sprintf("%s folds (%s)", e.Name, e.Note)
		}
		return e.Name + " folds"
	case game.EntryCheck:
		return e.Name + " checks"
	case game.EntryCall:
		return fmt.Sprintf("%s calls %d", e.Name, e.Amount)
	case game.EntryRaise:
		return fmt.Sprintf("%s raises to %d", e.Name, e.Amount)
	case game.EntryAllIn:
		return fmt.Sprintf("%s is all-in for %d", e.Name, e.Amount)
	case game.EntryTimeout:
		return fmt.Sprintf("%s timed out (%s)", e.Name, e.Action)
	case game.EntryStreet:
		return fmt.Sprintf("*** %s *** %s", strings.ToUpper(e.Street), formatCards(e.Board))
	case game.EntryWin:
		line := fmt.Sprintf("%s wins %d", e.Name, e.Amount)
		if e.Hand != nil {
			line += " with " + e.Hand.Name
		} else if e.Note != "" {
			line += " (" + e.Note + ")"
		}
		return line
	case game.EntryRake:
		return fmt.Sprintf("House takes %d rake", e.Amount)
	case game.EntryRunItTwiceFee:
		return fmt.Sprintf("Run it twice fee %d", e.Amount)
	case game.EntryRunItTwiceBoard:
		return fmt.Sprintf("Run it twice %s: %s", e.Note, formatCards(e.Board))
	case game.EntryInsurance:
		return fmt.Sprintf("%s insurance %s: %d", e.Name, e.Note, e.Amount)
	}
	return fmt.Sprintf("%s %s %d", e.Type, e.Name, e.Amount)
}
