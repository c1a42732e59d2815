package rendezvous

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog/log"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Emitter hands events to subscribers without blocking the caller
type Emitter interface {
	Emit(event events.Event)
}

type nopEmitter struct{}

func (nopEmitter) Emit(events.Event) {}

// round is the only mutable aggregate; it lives from the first proposal until reset
type round struct {
	id           uuid.UUID
	generation   uint64
	phase        models.Phase
	proposals    map[string]models.Proposal
	startedAt    time.Time
	decidedAt    time.Time
	verdict      models.Verdict
	acknowledged map[string]struct{}
	lateArrivals int
}

func (r *round) transition(to models.Phase) error {
	if !CanTransition(r.phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.phase, to)
	}
	r.phase = to
	return nil
}

// Coordinator collects proposals for one round at a time, fixes a verdict at
// the end of the decision window and resets once the drain window is over.
type Coordinator struct {
	config  Config
	clock   Clock
	emitter Emitter

	mu         sync.Mutex
	round      round
	history    []models.HistoryEntry
	generation uint64
	closed     bool

	// lifecycle goroutines
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock swaps the real clock, mostly for tests
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithEmitter sets where round events go
func WithEmitter(emitter Emitter) Option {
	return func(c *Coordinator) {
		c.emitter = emitter
	}
}

// WithHistory seeds history, newest first, e.g. from the archive on startup
func WithHistory(entries []models.HistoryEntry) Option {
	return func(c *Coordinator) {
		c.history = make([]models.HistoryEntry, len(entries))
		copy(c.history, entries)
		if c.config.HistoryLimit > 0 && len(c.history) > c.config.HistoryLimit {
			c.history = c.history[:c.config.HistoryLimit]
		}
	}
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(config Config, opts ...Option) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		config:  config,
		clock:   clockwork.NewRealClock(),
		emitter: nopEmitter{},
		round:   round{phase: models.PhaseIdle},
		history: []models.HistoryEntry{},
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the tunables the coordinator runs with
func (c *Coordinator) Config() Config {
	return c.config
}

// Submit records a participant's proposal. The first proposal of a round
// opens it and starts the round's lifecycle timer. Late proposals that
// arrive after the verdict are stored but cannot change it.
func (c *Coordinator) Submit(ctx context.Context, participantID, value string) (models.SubmitResult, error) {
	participantID = strings.TrimSpace(participantID)
	value = strings.TrimSpace(value)
	if participantID == "" {
		return models.SubmitResult{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}
	if value == "" {
		return models.SubmitResult{}, fmt.Errorf("%w: lobby value is required", ErrInvalidInput)
	}

	now := c.clock.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.SubmitResult{}, ErrClosed
	}

	started := false
	late := false
	switch c.round.phase {
	case models.PhaseIdle:
		c.generation++
		c.round = round{
			id:           uuid.New(),
			generation:   c.generation,
			phase:        models.PhaseIdle,
			proposals:    make(map[string]models.Proposal, c.config.RequiredParticipants),
			startedAt:    now,
			acknowledged: make(map[string]struct{}),
		}
		if err := c.round.transition(models.PhaseCollecting); err != nil {
			c.mu.Unlock()
			return models.SubmitResult{}, err
		}
		started = true

	case models.PhaseCollecting:
		if limit := c.config.participantCap(); limit > 0 {
			if _, exists := c.round.proposals[participantID]; !exists && len(c.round.proposals) >= limit {
				c.mu.Unlock()
				log.Warn().
					Str("round_id", c.round.id.String()).
					Str("participant_id", participantID).
					Int("max_participants", limit).
					Msg("rejecting proposal, round is full")
				return models.SubmitResult{}, fmt.Errorf("%w: %d participants already proposed", ErrRoundFull, limit)
			}
		}

	case models.PhaseDecided:
		late = true
		c.round.lateArrivals++
	}

	_, overwrote := c.round.proposals[participantID]
	c.round.proposals[participantID] = models.Proposal{
		ParticipantID: participantID,
		Value:         value,
		SubmittedAt:   now,
	}

	roundID := c.round.id
	startedAt := c.round.startedAt
	if started {
		c.wg.Add(1)
		go c.runRound(c.round.generation, roundID, startedAt)
	}
	c.mu.Unlock()

	if started {
		log.Info().
			Str("round_id", roundID.String()).
			Str("participant_id", participantID).
			Time("started_at", startedAt).
			Msg("round started")
		c.emit(events.EventTypeRoundStarted, roundID, now, events.RoundStartedPayload{
			RoundID:         roundID.String(),
			ParticipantID:   participantID,
			StartedAt:       startedAt,
			DecisionAt:      startedAt.Add(c.config.DecisionWindow),
			ResetAt:         startedAt.Add(c.config.RoundBudget + c.config.DrainWindow),
			RequiredSubmits: c.config.RequiredParticipants,
		})
	}

	logEvent := log.Info()
	if late {
		logEvent = log.Warn()
	}
	logEvent.
		Str("round_id", roundID.String()).
		Str("participant_id", participantID).
		Str("value", value).
		Bool("overwrote", overwrote).
		Bool("late", late).
		Msg("proposal received")

	c.emit(events.EventTypeProposalReceived, roundID, now, events.ProposalReceivedPayload{
		RoundID:       roundID.String(),
		ParticipantID: participantID,
		Value:         value,
		SubmittedAt:   now,
		Overwrote:     overwrote,
		Late:          late,
	})

	return models.SubmitResult{
		Status:  models.StatusReceived,
		RoundID: roundID,
		Late:    late,
	}, nil
}

// Query returns the current verdict, or pending while there is none.
// Every caller sees the same global verdict; the acknowledged set only
// feeds logging.
func (c *Coordinator) Query(ctx context.Context, participantID string) models.QueryResult {
	participantID = strings.TrimSpace(participantID)

	c.mu.Lock()
	verdict := c.round.verdict
	if verdict == models.VerdictNone {
		c.mu.Unlock()
		return models.QueryResult{Status: models.StatusPending}
	}
	_, seen := c.round.acknowledged[participantID]
	if !seen {
		c.round.acknowledged[participantID] = struct{}{}
	}
	roundID := c.round.id
	c.mu.Unlock()

	if !seen {
		log.Info().
			Str("round_id", roundID.String()).
			Str("participant_id", participantID).
			Str("verdict", string(verdict)).
			Msg("verdict delivered")
	} else {
		log.Debug().
			Str("round_id", roundID.String()).
			Str("participant_id", participantID).
			Str("verdict", string(verdict)).
			Msg("verdict redelivered")
	}

	return models.QueryResult{Status: string(verdict)}
}

// Snapshot returns a copy of the current round and history for display
func (c *Coordinator) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.Snapshot{
		RoundID:   c.round.id,
		Phase:     c.round.phase,
		Verdict:   c.round.verdict,
		Proposals: make([]models.Proposal, 0, len(c.round.proposals)),
		History:   make([]models.HistoryEntry, len(c.history)),
	}
	if !c.round.startedAt.IsZero() {
		startedAt := c.round.startedAt
		snap.StartedAt = &startedAt
	}
	if !c.round.decidedAt.IsZero() {
		decidedAt := c.round.decidedAt
		snap.DecidedAt = &decidedAt
	}
	for _, p := range c.round.proposals {
		snap.Proposals = append(snap.Proposals, p)
	}
	sort.Slice(snap.Proposals, func(i, j int) bool {
		a, b := snap.Proposals[i], snap.Proposals[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})
	copy(snap.History, c.history)

	return snap
}

// Close stops accepting proposals and cancels any running round timer
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	log.Info().Msg("coordinator closed")
}

func (c *Coordinator) emit(eventType events.EventType, roundID uuid.UUID, at time.Time, payload any) {
	event, err := events.New(eventType, roundID, at, payload)
	if err != nil {
		log.Error().Err(err).Str("round_id", roundID.String()).Msg("failed to build event")
		return
	}
	c.emitter.Emit(event)
}
