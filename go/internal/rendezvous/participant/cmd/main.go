package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/participant"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/rpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const exitRejected = 2

var errRejected = errors.New("lobby rejected")

var (
	participantID string
	lobbyID       string
	serverURL     string
	pollInterval  time.Duration
	timeout       time.Duration
	verbose       bool
)

func init() {
	rootCmd.Flags().StringVar(&participantID, "id", "", "participant id, e.g. pc1")
	rootCmd.MarkFlagRequired("id")
	rootCmd.Flags().StringVar(&lobbyID, "lobby", "", "lobby id to propose")
	rootCmd.MarkFlagRequired("lobby")
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "coordinator base URL")
	rootCmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "interval between verdict polls")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up waiting for a verdict after this long")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

var rootCmd = &cobra.Command{
	Use:   "participant",
	Short: "Propose a lobby id to the rendezvous coordinator and wait for the verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		client := rpc.NewClient(&http.Client{Timeout: 10 * time.Second}, serverURL)
		verdict, err := participant.Run(ctx, client, participant.Config{
			ParticipantID: participantID,
			LobbyID:       lobbyID,
			PollInterval:  pollInterval,
		})
		if err != nil {
			return err
		}

		fmt.Println(verdict)
		if verdict != models.VerdictAccept {
			return errRejected
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRejected) {
			os.Exit(exitRejected)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
