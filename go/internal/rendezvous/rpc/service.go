package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous"
)

// Coordinator defines what the RPC layer needs from the coordinator
type Coordinator interface {
	Submit(ctx context.Context, participantID, value string) (models.SubmitResult, error)
	Query(ctx context.Context, participantID string) models.QueryResult
	Snapshot() models.Snapshot
}

// Service implements the rendezvous RPC handlers
type Service struct {
	coordinator Coordinator
}

// NewService creates a new rendezvous RPC service
func NewService(coordinator Coordinator) *Service {
	return &Service{coordinator: coordinator}
}

// Submit stores a participant's lobby id for the current round
func (s *Service) Submit(ctx context.Context, req *connect.Request[SubmitRequest]) (*connect.Response[SubmitResponse], error) {
	result, err := s.coordinator.Submit(ctx, req.Msg.ParticipantID, req.Msg.LobbyID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SubmitResponse{
		Status:  result.Status,
		RoundID: result.RoundID.String(),
		Late:    result.Late,
	}), nil
}

// Query returns the verdict or pending
func (s *Service) Query(ctx context.Context, req *connect.Request[QueryRequest]) (*connect.Response[QueryResponse], error) {
	result := s.coordinator.Query(ctx, req.Msg.ParticipantID)
	return connect.NewResponse(&QueryResponse{Status: result.Status}), nil
}

// Snapshot returns the current round and history
func (s *Service) Snapshot(ctx context.Context, req *connect.Request[SnapshotRequest]) (*connect.Response[SnapshotResponse], error) {
	return connect.NewResponse(&SnapshotResponse{Snapshot: s.coordinator.Snapshot()}), nil
}

// NewHandler returns the path prefix and handler serving the service
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SubmitProcedure, connect.NewUnaryHandler(SubmitProcedure, svc.Submit, opts...))
	mux.Handle(QueryProcedure, connect.NewUnaryHandler(QueryProcedure, svc.Query, opts...))
	mux.Handle(SnapshotProcedure, connect.NewUnaryHandler(SnapshotProcedure, svc.Snapshot, opts...))
	return "/" + ServiceName + "/", mux
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, rendezvous.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, rendezvous.ErrRoundFull):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, rendezvous.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
