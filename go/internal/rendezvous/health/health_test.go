package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

type fakeConnector bool

func (f fakeConnector) Connected() bool { return bool(f) }

type fakeStats map[string]interface{}

func (f fakeStats) Stats() map[string]interface{} { return f }

func TestChecker_OnlyDispatcher(t *testing.T) {
	checker := NewChecker(fakeStats{"queued": 0}, nil, nil)

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Nil(t, status.DatabaseConnected)
	assert.Nil(t, status.NATSConnected)
	assert.Empty(t, status.Errors)
}

func TestChecker_UnhealthyDependencies(t *testing.T) {
	checker := NewChecker(fakeStats{"queued": 0}, fakePinger{err: errors.New("refused")}, fakeConnector(false))

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	require.NotNil(t, status.DatabaseConnected)
	assert.False(t, *status.DatabaseConnected)
	require.NotNil(t, status.NATSConnected)
	assert.False(t, *status.NATSConnected)
	assert.Len(t, status.Errors, 2)
}

func TestChecker_QueueWarningStaysHealthy(t *testing.T) {
	checker := NewChecker(fakeStats{"queued": 900}, fakePinger{}, fakeConnector(true))

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Len(t, status.Errors, 1)
}

func TestChecker_ServeHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker(fakeStats{"queued": 0}, nil, fakeConnector(false)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["healthy"])
	assert.Equal(t, false, body["nats_connected"])
}
