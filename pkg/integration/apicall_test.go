package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

func TestSendToAPIUnknownOrInactive(t *testing.T) {
	m := newTestManager(t)

	var hits int32
	srv := okServer(t, &hits)

	// Registered but never activated.
	integ, err := m.Register(RegisterInput{
		Name:          "crm",
		Config:        models.JSON{"endpoint": srv.URL},
		SyncFrequency: intPtr(0),
	})
	require.NoError(t, err)

	for _, id := range []uint{integ.ID, 999} {
		result, err := m.SendToAPI(context.Background(), id, models.JSON{"x": float64(1)}, "")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	}

	// No outbound call happened and no audit row was written.
	assert.Zero(t, atomic.LoadInt32(&hits))
	count, err := m.repo.GetLogsCount(integ.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendToAPIBearer(t *testing.T) {
	m := newTestManager(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "alice", payload["student"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	integ, err := m.Register(RegisterInput{
		Name:          "crm",
		Config:        models.JSON{"endpoint": srv.URL},
		AuthType:      models.AuthBearer,
		AuthConfig:    models.JSON{"token": "tok-123"},
		SyncFrequency: intPtr(0),
	})
	require.NoError(t, err)
	require.NoError(t, m.Activate(integ.ID))

	result, err := m.SendToAPI(context.Background(), integ.ID, models.JSON{"student": "alice"}, "")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Equal(t, map[string]interface{}{"ok": true}, result.Data)

	logs, err := m.repo.GetRecentLogs(integ.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "api_call", logs[0].EventType)
	assert.Equal(t, models.LogSuccess, logs[0].Status)
}

func TestSendToAPIServerError(t *testing.T) {
	m := newTestManager(t)

	srv := failServer(t)

	integ, err := m.Register(RegisterInput{
		Name:          "crm",
		Config:        models.JSON{"endpoint": srv.URL},
		SyncFrequency: intPtr(0),
	})
	require.NoError(t, err)
	require.NoError(t, m.Activate(integ.ID))

	result, err := m.SendToAPI(context.Background(), integ.ID, models.JSON{"x": float64(1)}, "")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Contains(t, result.Error, "HTTP 500")

	logs, err := m.repo.GetRecentLogs(integ.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogError, logs[0].Status)
}

func TestSendToAPINoEndpoint(t *testing.T) {
	m := newTestManager(t)

	integ, err := m.Register(RegisterInput{Name: "crm", SyncFrequency: intPtr(0)})
	require.NoError(t, err)
	require.NoError(t, m.Activate(integ.ID))

	result, err := m.SendToAPI(context.Background(), integ.ID, models.JSON{"x": float64(1)}, "")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no endpoint configured")
}

func TestSendToAPIEndpointOverride(t *testing.T) {
	m := newTestManager(t)

	var hits int32
	srv := okServer(t, &hits)

	integ, err := m.Register(RegisterInput{Name: "crm", SyncFrequency: intPtr(0)})
	require.NoError(t, err)
	require.NoError(t, m.Activate(integ.ID))

	result, err := m.SendToAPI(context.Background(), integ.ID, models.JSON{"x": float64(1)}, srv.URL)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSendToAPICustomHeadersAndMethod(t *testing.T) {
	m := newTestManager(t)

	type seen struct {
		method string
		header string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{method: r.Method, header: r.Header.Get("X-Course-Id")}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	integ, err := m.Register(RegisterInput{
		Name: "crm",
		Config: models.JSON{
			"endpoint": srv.URL,
			"method":   http.MethodPut,
			"headers":  map[string]interface{}{"X-Course-Id": "cs101"},
		},
		SyncFrequency: intPtr(0),
	})
	require.NoError(t, err)
	require.NoError(t, m.Activate(integ.ID))

	result, err := m.SendToAPI(context.Background(), integ.ID, nil, "")
	require.NoError(t, err)
	assert.True(t, result.Success)

	c := <-got
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "cs101", c.header)
}
