package rendezvous

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog/log"
)

// runRound drives one round from Collecting to Idle. Deadlines are absolute
// from startedAt so a slow goroutine start never stretches the window.
// The lock is only taken inside decide and reset, never while waiting.
func (c *Coordinator) runRound(generation uint64, roundID uuid.UUID, startedAt time.Time) {
	defer c.wg.Done()

	logger := log.With().Str("round_id", roundID.String()).Logger()

	decisionAt := startedAt.Add(c.config.DecisionWindow)
	if !c.waitUntil(decisionAt) {
		logger.Debug().Msg("round cancelled before decision")
		return
	}
	decidedAt := c.decide(generation)

	// Verdict stays visible until the round budget is spent, then for a
	// separate drain window so stragglers can still poll it.
	drainFrom := startedAt.Add(c.config.RoundBudget)
	if decidedAt.After(drainFrom) {
		drainFrom = decidedAt
	}
	resetAt := drainFrom.Add(c.config.DrainWindow)
	if !c.waitUntil(resetAt) {
		logger.Debug().Msg("round cancelled before reset")
		return
	}
	c.reset(generation)
}

// waitUntil blocks until the clock reaches deadline. It returns false if the
// coordinator is closed first.
func (c *Coordinator) waitUntil(deadline time.Time) bool {
	wait := deadline.Sub(c.clock.Now())
	if wait <= 0 {
		return c.ctx.Err() == nil
	}

	timer := c.clock.NewTimer(wait)
	defer stopAndDrainTimer(timer)

	select {
	case <-timer.Chan():
		return true
	case <-c.ctx.Done():
		return false
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// decide fixes the verdict for the round identified by generation and
// returns the decision time.
func (c *Coordinator) decide(generation uint64) time.Time {
	now := c.clock.Now()

	c.mu.Lock()
	if c.round.generation != generation {
		c.mu.Unlock()
		log.Warn().Uint64("generation", generation).Msg("decision timer fired for a stale round")
		return now
	}
	if err := c.round.transition(models.PhaseDecided); err != nil {
		c.mu.Unlock()
		log.Error().Err(err).Str("round_id", c.round.id.String()).Msg("failed to decide round")
		return now
	}

	verdict, agreed := Decide(c.round.proposals, c.config.RequiredParticipants)
	c.round.verdict = verdict
	c.round.decidedAt = now

	if verdict == models.VerdictAccept {
		c.history = prependHistory(c.history, models.HistoryEntry{
			RoundID:   c.round.id,
			Timestamp: now,
			Value:     agreed,
			Label:     models.HistoryLabelStarted,
		}, c.config.HistoryLimit)
	}

	roundID := c.round.id
	startedAt := c.round.startedAt
	proposals := make(map[string]string, len(c.round.proposals))
	for id, p := range c.round.proposals {
		proposals[id] = p.Value
	}
	c.mu.Unlock()

	log.Info().
		Str("round_id", roundID.String()).
		Str("verdict", string(verdict)).
		Str("agreed_value", agreed).
		Int("participants", len(proposals)).
		Msg("verdict reached")

	c.emit(events.EventTypeVerdictReached, roundID, now, events.VerdictReachedPayload{
		RoundID:      roundID.String(),
		Verdict:      string(verdict),
		AgreedValue:  agreed,
		Proposals:    proposals,
		StartedAt:    startedAt,
		DecidedAt:    now,
		Participants: len(proposals),
	})

	return now
}

// reset clears the round so the next proposal can open a new one
func (c *Coordinator) reset(generation uint64) {
	now := c.clock.Now()

	c.mu.Lock()
	if c.round.generation != generation {
		c.mu.Unlock()
		log.Warn().Uint64("generation", generation).Msg("reset timer fired for a stale round")
		return
	}
	if err := c.round.transition(models.PhaseIdle); err != nil {
		c.mu.Unlock()
		log.Error().Err(err).Str("round_id", c.round.id.String()).Msg("failed to reset round")
		return
	}

	roundID := c.round.id
	startedAt := c.round.startedAt
	lateArrivals := c.round.lateArrivals
	acknowledged := make([]string, 0, len(c.round.acknowledged))
	for id := range c.round.acknowledged {
		acknowledged = append(acknowledged, id)
	}
	c.round = round{phase: models.PhaseIdle, generation: generation}
	c.mu.Unlock()

	sort.Strings(acknowledged)

	log.Info().
		Str("round_id", roundID.String()).
		Strs("acknowledged", acknowledged).
		Int("late_arrivals", lateArrivals).
		Dur("duration", now.Sub(startedAt)).
		Msg("round reset")

	c.emit(events.EventTypeRoundReset, roundID, now, events.RoundResetPayload{
		RoundID:      roundID.String(),
		ResetAt:      now,
		Duration:     now.Sub(startedAt).String(),
		Acknowledged: acknowledged,
		LateArrivals: lateArrivals,
	})
}
