package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(os.Getenv("RENDEZVOUS_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}
	defer services.Close()

	// The feed outlives the dispatcher so queued events still reach it on shutdown
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	go services.Gateway.Start(feedCtx)

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		services.Dispatcher.Run(context.Background())
	}()

	server := setupServer(config, services)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("required_participants", config.Rendezvous.RequiredParticipants).
			Dur("decision_window", config.Rendezvous.DecisionWindow).
			Dur("round_budget", config.Rendezvous.RoundBudget).
			Dur("drain_window", config.Rendezvous.DrainWindow).
			Msg("rendezvous coordinator starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	services.Coordinator.Close()
	services.Dispatcher.Close()
	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("timed out draining events")
	}
	stopFeed()

	log.Info().Interface("dispatch", services.Dispatcher.Stats()).Msg("rendezvous coordinator stopped")
}
