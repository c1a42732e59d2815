package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the HTTP face of the coordinator: JSON routes, the dashboard
// and the websocket feed
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	apiHandler        *APIHandler
	dashboard         *DashboardHandler
}

// NewService creates a new gateway service. feed is also registered with the
// event dispatcher by the caller.
func NewService(feed *ConnectionManager, coordinator Coordinator) *Service {
	return &Service{
		connectionManager: feed,
		wsHandler:         NewWebSocketHandler(feed, coordinator),
		apiHandler:        NewAPIHandler(coordinator),
		dashboard:         NewDashboardHandler(coordinator),
	}
}

// Start runs the broadcast loop until ctx is done
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting rendezvous gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("rendezvous gateway stopped")
}

// RegisterRoutes registers every gateway route
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.apiHandler.RegisterRoutes(mux)
	s.wsHandler.RegisterRoutes(mux)
	mux.Handle("/", s.dashboard)
	log.Info().Msg("rendezvous gateway routes registered")
}

// GetStats returns statistics about the gateway
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "rendezvous_gateway"
	return stats
}
