package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Connector reports transport connectivity, e.g. the JetStream publisher
type Connector interface {
	Connected() bool
}

// StatsProvider exposes dispatcher counters
type StatsProvider interface {
	Stats() map[string]interface{}
}

type Status struct {
	Healthy           bool                   `json:"healthy"`
	DatabaseConnected *bool                  `json:"database_connected,omitempty"`
	NATSConnected     *bool                  `json:"nats_connected,omitempty"`
	Dispatch          map[string]interface{} `json:"dispatch"`
	Errors            []string               `json:"errors"`
}

// Checker reports whether the coordinator's collaborators are usable.
// Database and NATS are optional and only checked when configured.
type Checker struct {
	db            Pinger
	nats          Connector
	dispatcher    StatsProvider
	queuedWarning int
}

func NewChecker(dispatcher StatsProvider, db Pinger, nats Connector) *Checker {
	return &Checker{
		db:            db,
		nats:          nats,
		dispatcher:    dispatcher,
		queuedWarning: 500,
	}
}

func (h *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	if h.db != nil {
		connected := true
		if err := h.db.PingContext(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	if h.nats != nil {
		connected := h.nats.Connected()
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &connected
	}

	status.Dispatch = h.dispatcher.Stats()
	// A backed-up queue is reported but does not fail readiness
	if queued, ok := status.Dispatch["queued"].(int); ok && queued > h.queuedWarning {
		status.Errors = append(status.Errors, fmt.Sprintf("high queued event count: %d", queued))
	}

	return status
}

// ServeHTTP handles GET /health/ready
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
