package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/mcdev12/rendezvous/go/internal/models"
)

// Client calls a remote rendezvous coordinator
type Client struct {
	submit   *connect.Client[SubmitRequest, SubmitResponse]
	query    *connect.Client[QueryRequest, QueryResponse]
	snapshot *connect.Client[SnapshotRequest, SnapshotResponse]
}

// NewClient creates a client for the coordinator at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		submit:   connect.NewClient[SubmitRequest, SubmitResponse](httpClient, baseURL+SubmitProcedure, opts...),
		query:    connect.NewClient[QueryRequest, QueryResponse](httpClient, baseURL+QueryProcedure, opts...),
		snapshot: connect.NewClient[SnapshotRequest, SnapshotResponse](httpClient, baseURL+SnapshotProcedure, opts...),
	}
}

// Submit proposes lobbyID for participantID
func (c *Client) Submit(ctx context.Context, participantID, lobbyID string) (*SubmitResponse, error) {
	resp, err := c.submit.CallUnary(ctx, connect.NewRequest(&SubmitRequest{
		ParticipantID: participantID,
		LobbyID:       lobbyID,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Query polls for the verdict
func (c *Client) Query(ctx context.Context, participantID string) (string, error) {
	resp, err := c.query.CallUnary(ctx, connect.NewRequest(&QueryRequest{ParticipantID: participantID}))
	if err != nil {
		return "", err
	}
	return resp.Msg.Status, nil
}

// Snapshot fetches coordinator state
func (c *Client) Snapshot(ctx context.Context) (models.Snapshot, error) {
	resp, err := c.snapshot.CallUnary(ctx, connect.NewRequest(&SnapshotRequest{}))
	if err != nil {
		return models.Snapshot{}, err
	}
	return resp.Msg.Snapshot, nil
}
