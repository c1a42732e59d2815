package metrics

import (
	"context"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const namespace = "rendezvous"

// Collector turns round events into Prometheus metrics
type Collector struct {
	roundsStarted prometheus.Counter
	proposals     *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	participants  prometheus.Histogram
	roundDuration prometheus.Histogram
	activeRound   prometheus.Gauge
	acknowledged  prometheus.Histogram
}

var _ events.Publisher = (*Collector)(nil)

// NewCollector creates the collector and registers it with reg
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		roundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "started_total",
			Help:      "Total number of rounds opened by a first proposal",
		}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proposals",
			Name:      "total",
			Help:      "Proposals received by kind (new, overwrite, late)",
		}, []string{"kind"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "verdicts_total",
			Help:      "Round verdicts by outcome",
		}, []string{"verdict"}),
		participants: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "participants",
			Help:      "Number of participants that proposed before the decision",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "duration_seconds",
			Help:      "Time from first proposal to reset",
			Buckets:   prometheus.LinearBuckets(5, 5, 6),
		}),
		activeRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "active",
			Help:      "1 while a round is collecting or draining",
		}),
		acknowledged: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "acknowledged_participants",
			Help:      "Distinct participants that polled the verdict before reset",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.roundsStarted, c.proposals, c.verdicts, c.participants,
		c.roundDuration, c.activeRound, c.acknowledged,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Publish records the event; it never fails on unknown payloads
func (c *Collector) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.ParsePayload(event)
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("metrics skipped event")
		return nil
	}

	switch p := payload.(type) {
	case events.RoundStartedPayload:
		c.roundsStarted.Inc()
		c.activeRound.Set(1)

	case events.ProposalReceivedPayload:
		kind := "new"
		switch {
		case p.Late:
			kind = "late"
		case p.Overwrote:
			kind = "overwrite"
		}
		c.proposals.WithLabelValues(kind).Inc()

	case events.VerdictReachedPayload:
		c.verdicts.WithLabelValues(p.Verdict).Inc()
		c.participants.Observe(float64(p.Participants))

	case events.RoundResetPayload:
		c.activeRound.Set(0)
		c.acknowledged.Observe(float64(len(p.Acknowledged)))
		if d, err := time.ParseDuration(p.Duration); err == nil {
			c.roundDuration.Observe(d.Seconds())
		}
	}
	return nil
}
