package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

// APICallResult is the uniform outcome of a direct API call. Transport
// failures are reported here, never raised.
type APICallResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Status  int         `json:"status,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SendToAPI sends data through an active integration's configured endpoint.
// ErrNotFound is returned before any outbound call when the integration is
// unknown or inactive; every launched call produces exactly one audit row.
func (m *Manager) SendToAPI(ctx context.Context, id uint, data models.JSON, endpointOverride string) (*APICallResult, error) {
	m.mu.RLock()
	integ, ok := m.active[id]
	m.mu.RUnlock()
	if !ok {
		return &APICallResult{Success: false, Error: "integration not found or inactive"}, ErrNotFound
	}

	method := integ.Config.GetString("method", http.MethodPost)
	url := endpointOverride
	if url == "" {
		url = integ.Config.GetString("endpoint", "")
	}
	if url == "" {
		return m.failAPICall(integ, data, "no endpoint configured"), nil
	}

	scheme, err := m.parseAuthScheme(integ)
	if err != nil {
		return m.failAPICall(integ, data, fmt.Sprintf("auth configuration error: %v", err)), nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return m.failAPICall(integ, data, fmt.Sprintf("failed to serialize payload: %v", err)), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.requestTimeout(integ.Config))
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, bytes.NewReader(body))
	if err != nil {
		return m.failAPICall(integ, data, fmt.Sprintf("failed to build request: %v", err)), nil
	}

	for key, value := range integ.Config.GetStringMap("headers") {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", m.cfg.Integration.UserAgent)
	scheme.Apply(req)

	resp, err := m.client.Do(req)
	if err != nil {
		result := m.failAPICall(integ, data, err.Error())
		m.logger.LogAPICall(integ.ID, method, url, 0, false, err.Error())
		return result, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
		result := m.failAPICall(integ, data, errMsg)
		result.Status = resp.StatusCode
		m.logger.LogAPICall(integ.ID, method, url, resp.StatusCode, false, errMsg)
		return result, nil
	}

	// Responses are usually JSON but the raw body is kept when they are not.
	var parsed interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		parsed = string(respBody)
	}

	m.logAPICall(integ, data, models.JSON{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}, "")
	m.logger.LogAPICall(integ.ID, method, url, resp.StatusCode, true, "")

	return &APICallResult{
		Success: true,
		Data:    parsed,
		Status:  resp.StatusCode,
	}, nil
}

func (m *Manager) failAPICall(integ *models.Integration, request models.JSON, errMsg string) *APICallResult {
	m.logAPICall(integ, request, nil, errMsg)
	return &APICallResult{Success: false, Error: errMsg}
}

func (m *Manager) logAPICall(integ *models.Integration, request models.JSON, response models.JSON, errMsg string) {
	status := models.LogSuccess
	if errMsg != "" {
		status = models.LogError
	}

	entry := &models.IntegrationLog{
		IntegrationID: integ.ID,
		EventType:     "api_call",
		Direction:     models.DirectionOutgoing,
		Status:        status,
		RequestData:   request,
		ResponseData:  response,
		ErrorMessage:  errMsg,
	}

	if err := m.repo.CreateLog(entry); err != nil {
		m.logger.WithError(err).WithField("integration_id", integ.ID).Error("Failed to write integration log")
	}
}
