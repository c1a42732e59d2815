package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoordinator struct {
	mu        sync.Mutex
	submitted map[string]string
	submitErr error
	status    string
	snapshot  models.Snapshot
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{
		submitted: make(map[string]string),
		status:    models.StatusPending,
		snapshot:  models.Snapshot{Phase: models.PhaseIdle},
	}
}

func (f *fakeCoordinator) Submit(ctx context.Context, participantID, value string) (models.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return models.SubmitResult{}, f.submitErr
	}
	if participantID == "" || value == "" {
		return models.SubmitResult{}, fmt.Errorf("%w: missing field", rendezvous.ErrInvalidInput)
	}
	f.submitted[participantID] = value
	return models.SubmitResult{Status: models.StatusReceived, RoundID: uuid.New()}, nil
}

func (f *fakeCoordinator) Query(ctx context.Context, participantID string) models.QueryResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.QueryResult{Status: f.status}
}

func (f *fakeCoordinator) Snapshot() models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func decidedSnapshot() models.Snapshot {
	started := testTime
	decided := testTime.Add(5 * time.Second)
	return models.Snapshot{
		RoundID:   uuid.MustParse("6f1c2d1e-8a55-4a4b-9c49-0f1d8b7b1c01"),
		Phase:     models.PhaseDecided,
		Verdict:   models.VerdictAccept,
		StartedAt: &started,
		DecidedAt: &decided,
		Proposals: []models.Proposal{
			{ParticipantID: "pc1", Value: "lobby123", SubmittedAt: testTime},
			{ParticipantID: "pc2", Value: "lobby123", SubmittedAt: testTime.Add(time.Second)},
		},
		History: []models.HistoryEntry{
			{Timestamp: decided, Value: "lobby123", Label: models.HistoryLabelStarted},
		},
	}
}

func newTestMux(coordinator Coordinator) (*http.ServeMux, *ConnectionManager) {
	feed := NewConnectionManager(DefaultConnectionConfig())
	mux := http.NewServeMux()
	NewService(feed, coordinator).RegisterRoutes(mux)
	return mux, feed
}

func TestSendLobbyID(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid",
			body:       `{"pc":"pc1","lobby_id":"lobby123"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"received"}`,
		},
		{
			name:       "malformed json",
			body:       `{"pc":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid data"}`,
		},
		{
			name:       "numeric lobby id",
			body:       `{"pc":"pc1","lobby_id":123}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid data"}`,
		},
		{
			name:       "missing lobby id",
			body:       `{"pc":"pc1"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid data"}`,
		},
		{
			name:       "round full",
			body:       `{"pc":"pc3","lobby_id":"lobby123"}`,
			submitErr:  fmt.Errorf("%w: 2 participants already proposed", rendezvous.ErrRoundFull),
			wantStatus: http.StatusConflict,
			wantBody:   `{"error":"round full"}`,
		},
		{
			name:       "closed",
			body:       `{"pc":"pc1","lobby_id":"lobby123"}`,
			submitErr:  rendezvous.ErrClosed,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"coordinator closed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coordinator := newFakeCoordinator()
			coordinator.submitErr = tt.submitErr
			mux, _ := newTestMux(coordinator)

			req := httptest.NewRequest(http.MethodPost, "/send_lobby_id", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestSendLobbyID_MethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(newFakeCoordinator())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send_lobby_id", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckStatus(t *testing.T) {
	coordinator := newFakeCoordinator()
	mux, _ := newTestMux(coordinator)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check_status?pc=pc1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"pending"}`, rec.Body.String())

	coordinator.status = "accept"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check_status?pc=pc1", nil))
	assert.JSONEq(t, `{"status":"accept"}`, rec.Body.String())
}

func TestGetState(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.snapshot = decidedSnapshot()
	mux, _ := newTestMux(coordinator)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{
		"state": "accept",
		"round_id": "6f1c2d1e-8a55-4a4b-9c49-0f1d8b7b1c01",
		"started_at": "2024-03-01 12:00:00",
		"participants": [
			{"pc": "pc1", "lobby_id": "lobby123", "time": "2024-03-01 12:00:00"},
			{"pc": "pc2", "lobby_id": "lobby123", "time": "2024-03-01 12:00:01"}
		],
		"history": [
			{"timestamp": "2024-03-01 12:00:05", "lobby_id": "lobby123", "status": "Game started"}
		]
	}`, rec.Body.String())
}

func TestNewStateResponse_Idle(t *testing.T) {
	resp := NewStateResponse(models.Snapshot{Phase: models.PhaseIdle})
	assert.Equal(t, "waiting", resp.State)
	assert.Empty(t, resp.RoundID)
	assert.Nil(t, resp.StartedAt)
	assert.NotNil(t, resp.Participants)
	assert.NotNil(t, resp.History)
}

func TestDashboard(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.snapshot = decidedSnapshot()
	coordinator.snapshot.Proposals[0].Value = "<script>"
	mux, _ := newTestMux(coordinator)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "accept")
	assert.Contains(t, body, "Game started")
	assert.Contains(t, body, "2024-03-01 12:00:05")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingWriter struct {
	header http.Header
	status int
}

func (w *failingWriter) Header() http.Header       { return w.header }
func (w *failingWriter) WriteHeader(status int)    { w.status = status }
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDashboard_LogsWriteError(t *testing.T) {
	var logs bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = previous })

	coordinator := newFakeCoordinator()
	coordinator.snapshot = decidedSnapshot()
	handler := NewDashboardHandler(coordinator)

	w := &failingWriter{header: make(http.Header)}
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, w.header.Get("Content-Type"), "text/html")
	assert.Contains(t, logs.String(), "failed to write dashboard")
	assert.Contains(t, logs.String(), "connection reset")
}

func TestWebSocketFeed(t *testing.T) {
	coordinator := newFakeCoordinator()
	coordinator.snapshot = decidedSnapshot()
	mux, feed := newTestMux(coordinator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Start(ctx)

	server := httptest.NewServer(mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/rendezvous?viewer=test"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var initial events.Event
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, EventTypeSnapshot, initial.Type)
	var state StateResponse
	require.NoError(t, json.Unmarshal(initial.Payload, &state))
	assert.Equal(t, "accept", state.State)

	require.Eventually(t, func() bool {
		return feed.GetConnectionStats()["total_connections"] == 1
	}, time.Second, time.Millisecond)

	roundID := uuid.New()
	event, err := events.New(events.EventTypeRoundReset, roundID, testTime, events.RoundResetPayload{RoundID: roundID.String()})
	require.NoError(t, err)
	require.NoError(t, feed.Publish(context.Background(), event))

	var received events.Event
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, event.ID, received.ID)
	assert.Equal(t, events.EventTypeRoundReset, received.Type)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/stats", nil))
	assert.Contains(t, rec.Body.String(), `"total_connections":1`)
}

func TestConnectionManager_PublishRespectsContext(t *testing.T) {
	feed := NewConnectionManager(DefaultConnectionConfig())
	event := events.Event{Type: events.EventTypeRoundStarted}

	// fill the buffer with nobody draining it
	for i := 0; i < cap(feed.broadcastCh); i++ {
		require.NoError(t, feed.Publish(context.Background(), event))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, feed.Publish(ctx, event), context.DeadlineExceeded)
}
