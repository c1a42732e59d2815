package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/archive"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/dispatch"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/gateway"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/health"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/metrics"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/publisher"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Coordinator *rendezvous.Coordinator
	Dispatcher  *dispatch.Dispatcher
	Feed        *gateway.ConnectionManager
	Gateway     *gateway.Service
	RPC         *rpc.Service
	Registry    *prometheus.Registry
	Health      *health.Checker

	jetStream *publisher.JetStreamPublisher
	db        *sql.DB
}

func setupServices(ctx context.Context, config Config) (*Services, error) {
	// Publishers first; the coordinator emits into the dispatcher that owns them
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	feed := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	publishers := []events.Publisher{collector, feed}
	s := &Services{Feed: feed, Registry: registry}

	if config.NATSURL != "" {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.URL = config.NATSURL
		js, err := publisher.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to setup JetStream publisher: %w", err)
		}
		s.jetStream = js
		publishers = append(publishers, js)
		log.Info().Str("nats_url", config.NATSURL).Str("stream", jsCfg.StreamName).Msg("publishing round events to JetStream")
	}

	var opts []rendezvous.Option
	if config.ArchiveEnabled {
		db, err := setupDatabase(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.db = db

		repo := archive.NewRepository(archive.New(db))
		publishers = append(publishers, archive.NewArchiver(repo))

		history, err := repo.RecentHistory(ctx, config.Rendezvous.HistoryLimit)
		if err != nil {
			log.Warn().Err(err).Msg("could not preload history from archive")
		} else {
			opts = append(opts, rendezvous.WithHistory(history))
			log.Info().Int("entries", len(history)).Msg("preloaded history from archive")
		}
	}

	s.Dispatcher = dispatch.NewDispatcher(dispatch.DefaultConfig(), publishers...)
	opts = append(opts, rendezvous.WithEmitter(s.Dispatcher))

	coordinator, err := rendezvous.NewCoordinator(config.Rendezvous, opts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	s.Coordinator = coordinator
	s.Gateway = gateway.NewService(feed, coordinator)
	s.RPC = rpc.NewService(coordinator)

	// Optional dependencies stay untyped nil so the checker skips them
	var db health.Pinger
	if s.db != nil {
		db = s.db
	}
	var nc health.Connector
	if s.jetStream != nil {
		nc = s.jetStream
	}
	s.Health = health.NewChecker(s.Dispatcher, db, nc)

	return s, nil
}

// Close releases external connections; the coordinator and dispatcher are
// stopped by the shutdown sequence in main
func (s *Services) Close() {
	if s.jetStream != nil {
		if err := s.jetStream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream publisher")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close archive database")
		}
	}
}
