package rendezvous

import (
	"fmt"
	"time"
)

// Config holds the round tunables
type Config struct {
	RequiredParticipants int           `yaml:"required_participants"`
	DecisionWindow       time.Duration `yaml:"decision_window"`
	RoundBudget          time.Duration `yaml:"round_budget"`
	DrainWindow          time.Duration `yaml:"drain_window"`
	HistoryLimit         int           `yaml:"history_limit"`    // 0 keeps every entry
	MaxParticipants      int           `yaml:"max_participants"` // 0 caps at RequiredParticipants
}

// UnlimitedParticipants disables the per-round participant cap
const UnlimitedParticipants = -1

// DefaultConfig returns the lobby server defaults: two PCs, decide at 5s,
// keep the verdict visible until 10s, then drain for another 5s.
func DefaultConfig() Config {
	return Config{
		RequiredParticipants: 2,
		DecisionWindow:       5 * time.Second,
		RoundBudget:          10 * time.Second,
		DrainWindow:          5 * time.Second,
		HistoryLimit:         100,
		MaxParticipants:      0,
	}
}

// Validate checks that the windows describe a usable round
func (c Config) Validate() error {
	if c.RequiredParticipants < 1 {
		return fmt.Errorf("required participants must be at least 1, got %d", c.RequiredParticipants)
	}
	if c.DecisionWindow <= 0 {
		return fmt.Errorf("decision window must be positive, got %s", c.DecisionWindow)
	}
	if c.RoundBudget < c.DecisionWindow {
		return fmt.Errorf("round budget %s is shorter than decision window %s", c.RoundBudget, c.DecisionWindow)
	}
	if c.DrainWindow < 0 {
		return fmt.Errorf("drain window must not be negative, got %s", c.DrainWindow)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}
	if c.MaxParticipants < UnlimitedParticipants {
		return fmt.Errorf("max participants must be %d (unlimited), 0 or a positive cap, got %d", UnlimitedParticipants, c.MaxParticipants)
	}
	if c.MaxParticipants > 0 && c.MaxParticipants < c.RequiredParticipants {
		return fmt.Errorf("max participants %d is below required participants %d", c.MaxParticipants, c.RequiredParticipants)
	}
	return nil
}

// participantCap returns how many distinct participants a round may hold, or 0 for no cap
func (c Config) participantCap() int {
	switch {
	case c.MaxParticipants == UnlimitedParticipants:
		return 0
	case c.MaxParticipants == 0:
		return c.RequiredParticipants
	default:
		return c.MaxParticipants
	}
}
