package game

import "fmt"

// Rules holds the stakes and house settings of a table.
type Rules struct {
	SmallBlind int
	BigBlind   int
	MaxSeats   int

	// RakeBasisPoints is taken from contested pots that saw a flop.
	// RakeCap of 0 means uncapped.
	RakeBasisPoints int
	RakeCap         int

	RunItTwiceFeeBasisPoints int
	InsuranceCoveragePct     int
	EquitySamples            int

	LogLimit int
}

// DefaultRules returns a 5/10 table with no rake.
func DefaultRules() Rules {
	return Rules{
		SmallBlind:               5,
		BigBlind:                 10,
		MaxSeats:                 8,
		RunItTwiceFeeBasisPoints: 0,
		InsuranceCoveragePct:     50,
		EquitySamples:            2000,
		LogLimit:                 500,
	}
}

// Validate checks the rules are internally consistent
func (r Rules) Validate() error {
	if r.SmallBlind <= 0 || r.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive")
	}
	if r.SmallBlind > r.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", r.SmallBlind, r.BigBlind)
	}
	if r.MaxSeats < 2 || r.MaxSeats > 8 {
		return fmt.Errorf("max seats must be between 2 and 8, got %d", r.MaxSeats)
	}
	if r.RakeBasisPoints < 0 || r.RakeBasisPoints > 10000 {
		return fmt.Errorf("rake basis points must be between 0 and 10000")
	}
	if r.RakeCap < 0 {
		return fmt.Errorf("rake cap cannot be negative")
	}
	if r.RunItTwiceFeeBasisPoints < 0 || r.RunItTwiceFeeBasisPoints > 10000 {
		return fmt.Errorf("run it twice fee basis points must be between 0 and 10000")
	}
	if r.InsuranceCoveragePct < 0 || r.InsuranceCoveragePct > 100 {
		return fmt.Errorf("insurance coverage must be between 0 and 100 percent")
	}
	if r.LogLimit <= 0 {
		return fmt.Errorf("log limit must be positive")
	}
	return nil
}
