package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the event dispatcher
type Config struct {
	BufferSize     int
	PublishTimeout time.Duration
}

// DefaultConfig returns default dispatcher configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:     1000,
		PublishTimeout: 5 * time.Second,
	}
}

// Dispatcher fans coordinator events out to publishers on its own goroutine,
// so the coordinator never waits on a slow subscriber.
type Dispatcher struct {
	publishers []events.Publisher
	config     Config
	eventCh    chan events.Event

	mu     sync.RWMutex
	closed bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcher creates a dispatcher for the given publishers
func NewDispatcher(config Config, publishers ...events.Publisher) *Dispatcher {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultConfig().PublishTimeout
	}
	return &Dispatcher{
		publishers: publishers,
		config:     config,
		eventCh:    make(chan events.Event, config.BufferSize),
	}
}

// Emit queues an event. It never blocks; when the buffer is full the event is dropped.
func (d *Dispatcher) Emit(event events.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Debug().Str("event_type", string(event.Type)).Msg("dispatcher closed, dropping event")
		return
	}

	select {
	case d.eventCh <- event:
	default:
		d.dropped.Add(1)
		log.Warn().
			Str("event_type", string(event.Type)).
			Str("round_id", event.RoundID.String()).
			Msg("dispatch channel full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled or Close is called.
// Events still queued at Close are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Info().Int("publishers", len(d.publishers)).Msg("event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event dispatcher shutting down")
			return
		case event, ok := <-d.eventCh:
			if !ok {
				log.Info().Msg("event channel closed, dispatcher stopped")
				return
			}
			d.deliver(ctx, event)
		}
	}
}

// Close stops accepting events and lets Run drain what is queued
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.eventCh)
}

// Stats returns delivery counters
func (d *Dispatcher) Stats() map[string]interface{} {
	return map[string]interface{}{
		"delivered":  d.delivered.Load(),
		"dropped":    d.dropped.Load(),
		"failed":     d.failed.Load(),
		"queued":     len(d.eventCh),
		"publishers": len(d.publishers),
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event events.Event) {
	for _, p := range d.publishers {
		publishCtx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
		err := p.Publish(publishCtx, event)
		cancel()
		if err != nil {
			d.failed.Add(1)
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.Type)).
				Msg("failed to publish event")
			continue
		}
		d.delivered.Add(1)
	}
}
