package game

import (
	"time"

	"github.com/rishabpremish/Card-Games-sub000/internal/deck"
	"github.com/rishabpremish/Card-Games-sub000/internal/evaluator"
)

// EntryType discriminates action log entries
type EntryType string

const (
	EntryBlind           EntryType = "blind"
	EntryFold            EntryType = "fold"
	EntryCheck           EntryType = "check"
	EntryCall            EntryType = "call"
	EntryRaise           EntryType = "raise"
	EntryAllIn           EntryType = "allin"
	EntryWin             EntryType = "win"
	EntryRake            EntryType = "rake"
	EntryStreet          EntryType = "street"
	EntryTimeout         EntryType = "timeout"
	EntryInsurance       EntryType = "insurance"
	EntryRunItTwiceFee   EntryType = "run_it_twice_fee"
	EntryRunItTwiceBoard EntryType = "run_it_twice_board"
)

// LogEntry is one line of the hand log. Fields not relevant to the entry
// type are left empty.
type LogEntry struct {
	Seq        int                  `json:"seq"`
	HandNumber int                  `json:"handNumber"`
	Time       time.Time            `json:"time"`
	Type       EntryType            `json:"type"`
	PlayerID   string               `json:"playerId,omitempty"`
	Name       string               `json:"name,omitempty"`
	Amount     int                  `json:"amount,omitempty"`
	Street     string               `json:"street,omitempty"`
	Cards      []deck.Card          `json:"cards,omitempty"`
	Board      []deck.Card          `json:"board,omitempty"`
	Action     string               `json:"action,omitempty"`
	Hand       *evaluator.HandValue `json:"hand,omitempty"`
	Note       string               `json:"note,omitempty"`
}

// ActionLog is an append-only log that retains the most recent entries
type ActionLog struct {
	limit   int
	seq     int
	entries []LogEntry
}

// NewActionLog creates a log retaining at most limit entries
func NewActionLog(limit int) *ActionLog {
	if limit <= 0 {
		limit = 500
	}
	return &ActionLog{limit: limit}
}

// Append stamps the entry with the next sequence number and stores it
func (l *ActionLog) Append(e LogEntry) LogEntry {
	l.seq++
	e.Seq = l.seq
	l.entries = append(l.entries, e)
	if len(l.entries) > l.limit {
		l.entries = append(l.entries[:0:0], l.entries[len(l.entries)-l.limit:]...)
	}
	return e
}

// Entries returns a copy of the retained entries
func (l *ActionLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail returns a copy of at most n of the newest entries
func (l *ActionLog) Tail(n int) []LogEntry {
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]LogEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// HandEntries returns the retained entries for one hand
func (l *ActionLog) HandEntries(hand int) []LogEntry {
	var out []LogEntry
	for _, e := range l.entries {
		if e.HandNumber == hand {
			out = append(out, e)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest entry
func (l *ActionLog) LastSeq() int {
	return l.seq
}
