package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/config"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/db"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/integration"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/log"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 0},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			Database:     ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Security: config.SecurityConfig{
			JWTSecret:        "test-jwt-secret",
			EncryptionKey:    "0123456789abcdef0123456789abcdef",
			RateLimitEnabled: false,
		},
		Logging: config.LoggingConfig{
			Level:  "error",
			Format: "text",
			Output: "stdout",
		},
		Integration: config.IntegrationConfig{
			RequestTimeout:       5,
			DefaultSyncFrequency: 3600,
			UserAgent:            "IntegraGate/1.0",
		},
	}

	database, err := db.New(&cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger, err := log.New(&cfg.Logging)
	require.NoError(t, err)

	manager, err := integration.NewManager(cfg, database, logger)
	require.NoError(t, err)
	require.NoError(t, manager.Initialize())
	t.Cleanup(manager.Shutdown)

	server, err := New(cfg, database, logger, manager)
	require.NoError(t, err)

	token, err := server.jwtManager.GenerateToken("admin", "superuser", time.Hour)
	require.NoError(t, err)

	return server, token
}

func doRequest(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/integrations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/integrations", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterIntegrationEndpoint(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/integrations", token, gin.H{
		"name":      "crm",
		"type":      "api",
		"auth_type": "bearer",
		"auth_config": gin.H{
			"token": "tok-123",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	// Duplicate names are rejected as a client error.
	rec = doRequest(t, s, http.MethodPost, "/api/v1/integrations", token, gin.H{"name": "crm"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Invalid auth config never reaches storage.
	rec = doRequest(t, s, http.MethodPost, "/api/v1/integrations", token, gin.H{
		"name":      "other",
		"auth_type": "bearer",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegrationLifecycleEndpoints(t *testing.T) {
	s, token := newTestServer(t)

	integ, err := s.manager.Register(integration.RegisterInput{Name: "crm"})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/integrations/%d/activate", integ.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.manager.IsActive(integ.ID))

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/v1/integrations/%d", integ.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/integrations/%d/deactivate", integ.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.manager.IsActive(integ.ID))

	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/v1/integrations/%d", integ.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/v1/integrations/%d", integ.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycleUnknownID(t *testing.T) {
	s, token := newTestServer(t)

	for _, path := range []string{
		"/api/v1/integrations/999/activate",
		"/api/v1/integrations/999/deactivate",
	} {
		rec := doRequest(t, s, http.MethodPost, path, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/integrations/not-a-number", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpoints(t *testing.T) {
	s, token := newTestServer(t)

	integ, err := s.manager.Register(integration.RegisterInput{Name: "notify"})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/integrations/%d/webhooks", integ.ID), token, gin.H{
		"event_type":   "note.uploaded",
		"endpoint_url": "https://example.com/hook",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The generated secret is returned exactly once, at creation.
	var created struct {
		Data struct {
			SecretKey string `json:"secret_key"`
			Webhook   struct {
				ID uint `json:"id"`
			} `json:"webhook"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.Data.SecretKey, 64)

	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/v1/integrations/%d/webhooks", integ.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.Data.SecretKey)

	// Invalid event types and URLs are rejected.
	rec = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/integrations/%d/webhooks", integ.ID), token, gin.H{
		"event_type":   "Not Valid",
		"endpoint_url": "https://example.com/hook",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/v1/webhooks/%d", created.Data.Webhook.ID), token, gin.H{
		"active": false,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/v1/webhooks/%d", created.Data.Webhook.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/webhooks/999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerEventEndpoint(t *testing.T) {
	s, token := newTestServer(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	integ, err := s.manager.Register(integration.RegisterInput{Name: "notify"})
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/v1/integrations/%d/webhooks", integ.ID), token, gin.H{
		"event_type":   "note.uploaded",
		"endpoint_url": upstream.URL,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, s.manager.Activate(integ.ID))

	rec = doRequest(t, s, http.MethodPost, "/api/v1/events/trigger", token, gin.H{
		"event_type": "note.uploaded",
		"payload":    gin.H{"note_id": 7},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data integration.DispatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, integration.DispatchResult{Successful: 1, Failed: 0, Total: 1}, resp.Data)
}

func TestIncomingHookEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	integ, err := s.manager.Register(integration.RegisterInput{Name: "github"})
	require.NoError(t, err)

	path := "/api/v1/hooks/" + integ.UUID

	// Inactive integrations do not accept webhooks.
	rec := doRequest(t, s, http.MethodPost, path, "", gin.H{"action": "push"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.manager.Activate(integ.ID))

	rec = doRequest(t, s, http.MethodPost, path, "", gin.H{"action": "push"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/hooks/unknown-uuid", "", gin.H{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The received payload lands in the audit log.
	count, err := s.manager.Repository().GetLogsCount(integ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIncomingHookSignature(t *testing.T) {
	s, _ := newTestServer(t)

	integ, err := s.manager.Register(integration.RegisterInput{
		Name:   "github",
		Config: models.JSON{"incoming_secret": "s3cret"},
	})
	require.NoError(t, err)
	require.NoError(t, s.manager.Activate(integ.ID))

	path := "/api/v1/hooks/" + integ.UUID
	body := []byte(`{"action":"push"}`)

	// Missing or wrong signature is rejected.
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", integration.SignPayload("s3cret", body))
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s, token := newTestServer(t)

	for _, path := range []string{
		"/api/v1/analytics/deliveries",
		"/api/v1/analytics/errors",
		"/api/v1/analytics/volume",
		"/api/v1/analytics/events",
	} {
		rec := doRequest(t, s, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestTemplatesEndpoint(t *testing.T) {
	s, token := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/integrations/templates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.IntegrationTemplate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
}
