package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

// DispatchResult aggregates one fan-out: how many deliveries succeeded, how
// many failed, and how many webhooks matched.
type DispatchResult struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// WebhookEnvelope is the wire shape posted to webhook endpoints. The
// signature covers the exact serialized bytes of this envelope.
type WebhookEnvelope struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Data      models.JSON `json:"data"`
}

type dispatchTarget struct {
	integrationID uint
	webhook       models.Webhook
}

// TriggerWebhooks delivers an event to every cached webhook subscribed to
// eventType (or the wildcard). Deliveries run concurrently with one timeout
// each; a failing endpoint only affects its own tally. The aggregate is
// always returned, never an error.
func (m *Manager) TriggerWebhooks(ctx context.Context, eventType string, payload models.JSON) DispatchResult {
	m.mu.RLock()
	var targets []dispatchTarget
	for integrationID, hooks := range m.webhooks {
		for _, hook := range hooks {
			if hook.Active && hook.Matches(eventType) {
				targets = append(targets, dispatchTarget{integrationID: integrationID, webhook: hook})
			}
		}
	}
	m.mu.RUnlock()

	result := DispatchResult{Total: len(targets)}
	if len(targets) == 0 {
		return result
	}

	outcomes := make([]bool, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target dispatchTarget) {
			defer wg.Done()
			outcomes[i] = m.sendWebhook(ctx, target.integrationID, target.webhook, eventType, payload)
		}(i, target)
	}
	wg.Wait()

	for _, ok := range outcomes {
		if ok {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	m.logger.LogDispatch(eventType, result.Successful, result.Failed, result.Total)
	return result
}

// SendTest delivers a single test.ping event to one webhook, bypassing
// event-type matching. Used by the admin surface to verify an endpoint.
func (m *Manager) SendTest(ctx context.Context, webhook models.Webhook) bool {
	payload := models.JSON{
		"message": "test delivery",
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	}
	return m.sendWebhook(ctx, webhook.IntegrationID, webhook, "test.ping", payload)
}

// sendWebhook performs one delivery attempt and writes its audit log row
// after the outcome is known. No retry happens here; a trigger makes at most
// one attempt per webhook.
func (m *Manager) sendWebhook(ctx context.Context, integrationID uint, webhook models.Webhook, eventType string, payload models.JSON) bool {
	envelope := WebhookEnvelope{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		m.logDelivery(integrationID, envelope, nil, fmt.Sprintf("failed to serialize envelope: %v", err))
		m.logger.LogDelivery(integrationID, webhook.ID, eventType, webhook.EndpointURL, false, err.Error())
		return false
	}

	signature := SignPayload(webhook.SecretKey, body)

	callCtx, cancel := context.WithTimeout(ctx, m.requestTimeout(nil))
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, webhook.EndpointURL, bytes.NewReader(body))
	if err != nil {
		m.logDelivery(integrationID, envelope, nil, fmt.Sprintf("failed to build request: %v", err))
		m.logger.LogDelivery(integrationID, webhook.ID, eventType, webhook.EndpointURL, false, err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("User-Agent", m.cfg.Integration.UserAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logDelivery(integrationID, envelope, nil, err.Error())
		m.logger.LogDelivery(integrationID, webhook.ID, eventType, webhook.EndpointURL, false, err.Error())
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
		m.logDelivery(integrationID, envelope, nil, errMsg)
		m.logger.LogDelivery(integrationID, webhook.ID, eventType, webhook.EndpointURL, false, errMsg)
		return false
	}

	m.logDelivery(integrationID, envelope, models.JSON{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}, "")
	m.logger.LogDelivery(integrationID, webhook.ID, eventType, webhook.EndpointURL, true, "")
	return true
}

// logDelivery writes the audit row for one webhook delivery.
func (m *Manager) logDelivery(integrationID uint, envelope WebhookEnvelope, response models.JSON, errMsg string) {
	status := models.LogSuccess
	if errMsg != "" {
		status = models.LogError
	}

	entry := &models.IntegrationLog{
		IntegrationID: integrationID,
		EventType:     "webhook",
		Direction:     models.DirectionOutgoing,
		Status:        status,
		RequestData: models.JSON{
			"event":     envelope.Event,
			"timestamp": envelope.Timestamp,
			"data":      map[string]interface{}(envelope.Data),
		},
		ResponseData: response,
		ErrorMessage: errMsg,
	}

	if err := m.repo.CreateLog(entry); err != nil {
		m.logger.WithError(err).WithField("integration_id", integrationID).Error("Failed to write integration log")
	}
}

// SignPayload computes the hex-encoded HMAC-SHA256 of body under secret. An
// empty secret yields an empty signature.
func SignPayload(secret string, body []byte) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the payload in
// constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := SignPayload(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
