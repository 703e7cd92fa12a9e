package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

// SyncHandler receives the body pulled from an integration's sync endpoint.
// The default handler only logs; applications plug in their own merge logic.
type SyncHandler func(integ *models.Integration, body []byte) error

// syncTimer is the cancellable handle for one integration's periodic sync.
// Timer handles live in their own map, never on the cached row.
type syncTimer struct {
	stopCh chan struct{}
	done   chan struct{}
}

// stop cancels the timer and waits for its loop, including any in-flight
// firing, to finish.
func (t *syncTimer) stop() {
	close(t.stopCh)
	<-t.done
}

// SetSyncHandler replaces the sync-data processing hook. Safe to call while
// timers are running; in-flight firings keep the hook they already read.
func (m *Manager) SetSyncHandler(handler SyncHandler) {
	m.mu.Lock()
	m.processSync = handler
	m.mu.Unlock()
}

// startSyncTimerLocked starts the periodic sync loop for an integration.
// The caller must hold m.mu. A timer already running for the id is kept.
func (m *Manager) startSyncTimerLocked(integ *models.Integration) {
	if _, ok := m.syncTimers[integ.ID]; ok {
		return
	}

	timer := &syncTimer{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.syncTimers[integ.ID] = timer

	interval := time.Duration(integ.SyncFrequency) * time.Second

	m.wg.Add(1)
	go m.runSyncLoop(integ.ID, interval, timer)

	m.logger.WithFields(map[string]interface{}{
		"integration_id": integ.ID,
		"interval_s":     integ.SyncFrequency,
	}).Debug("Sync timer started")
}

// runSyncLoop fires runSync every interval until stopped.
func (m *Manager) runSyncLoop(integrationID uint, interval time.Duration, timer *syncTimer) {
	defer m.wg.Done()
	defer close(timer.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.stopCh:
			return
		case <-ticker.C:
			m.runSync(integrationID)
		}
	}
}

// runSync performs one sync firing. A failure is logged and the next tick
// runs on schedule; there is no backoff. When the integration has been
// evicted from the cache nothing is pulled or written.
func (m *Manager) runSync(integrationID uint) {
	m.mu.RLock()
	integ, ok := m.active[integrationID]
	processSync := m.processSync
	m.mu.RUnlock()
	if !ok {
		return
	}

	if integ.Type != models.TypeAPI {
		return
	}
	syncEndpoint := integ.Config.GetString("syncEndpoint", "")
	if syncEndpoint == "" {
		return
	}

	body, err := m.pullSyncData(integ, syncEndpoint)
	if err != nil {
		m.logSync(integ.ID, syncEndpoint, err.Error())
		m.logger.LogSync(integ.ID, integ.Name, false, err.Error())
		return
	}

	if err := processSync(integ, body); err != nil {
		m.logSync(integ.ID, syncEndpoint, fmt.Sprintf("sync processing failed: %v", err))
		m.logger.LogSync(integ.ID, integ.Name, false, err.Error())
		return
	}

	now := time.Now().UTC()
	if err := m.repo.UpdateLastSync(integ.ID, now); err != nil {
		m.logger.WithError(err).WithField("integration_id", integ.ID).Error("Failed to stamp last_sync")
	}
	m.mu.Lock()
	if cached, ok := m.active[integ.ID]; ok {
		cached.LastSync = &now
	}
	m.mu.Unlock()

	m.logSync(integ.ID, syncEndpoint, "")
	m.logger.LogSync(integ.ID, integ.Name, true, "")
}

// pullSyncData issues the GET against the sync endpoint.
func (m *Manager) pullSyncData(integ *models.Integration, syncEndpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout(integ.Config))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, syncEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}

	for key, value := range integ.Config.GetStringMap("headers") {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", m.cfg.Integration.UserAgent)

	scheme, err := m.parseAuthScheme(integ)
	if err != nil {
		return nil, fmt.Errorf("auth configuration error: %w", err)
	}
	scheme.Apply(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// logSync writes the audit row for one sync firing.
func (m *Manager) logSync(integrationID uint, syncEndpoint, errMsg string) {
	status := models.LogSuccess
	if errMsg != "" {
		status = models.LogError
	}

	entry := &models.IntegrationLog{
		IntegrationID: integrationID,
		EventType:     "sync",
		Direction:     models.DirectionOutgoing,
		Status:        status,
		RequestData:   models.JSON{"sync_endpoint": syncEndpoint},
		ErrorMessage:  errMsg,
	}

	if err := m.repo.CreateLog(entry); err != nil {
		m.logger.WithError(err).WithField("integration_id", integrationID).Error("Failed to write integration log")
	}
}

// defaultSyncHandler is the log-only processing hook.
func (m *Manager) defaultSyncHandler(integ *models.Integration, body []byte) error {
	m.logger.WithFields(map[string]interface{}{
		"integration_id": integ.ID,
		"bytes":          len(body),
	}).Debug("Sync data received")
	return nil
}
