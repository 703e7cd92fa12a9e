package integration

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/authscheme"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/config"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/db"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/log"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/utils"
	"gorm.io/gorm"
)

// Manager owns the in-process view of active integrations: which ones are
// active, their webhook subscriptions, and their running sync timers. The
// database stays the source of truth; the cache is rebuilt on Initialize and
// patched by Register/Activate/Deactivate/Delete.
type Manager struct {
	cfg        *config.Config
	db         *db.DB
	repo       *db.Repository
	logger     *log.Logger
	encryption *utils.Encryption
	tokens     *utils.TokenGenerator
	client     *http.Client

	// lifecycle serializes Activate/Deactivate/Delete/Shutdown so no two
	// lifecycle transitions interleave their cache patches. It is safe to
	// hold while waiting on a timer stop: sync firings only take mu.
	lifecycle sync.Mutex

	// mu guards the three maps and the sync hook below.
	mu          sync.RWMutex
	active      map[uint]*models.Integration
	webhooks    map[uint][]models.Webhook
	syncTimers  map[uint]*syncTimer
	processSync SyncHandler

	wg sync.WaitGroup
}

// IntegrationInfo is an integration row plus its cache membership.
type IntegrationInfo struct {
	models.Integration
	IsActive bool `json:"is_active"`
}

// StatusResult is the GetStatus projection: the row, cache membership and the
// most recent audit log entries.
type StatusResult struct {
	Integration *models.Integration     `json:"integration"`
	IsActive    bool                    `json:"is_active"`
	RecentLogs  []models.IntegrationLog `json:"recent_logs"`
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name          string
	Type          models.IntegrationType
	Config        models.JSON
	AuthType      models.AuthType
	AuthConfig    models.JSON
	SyncFrequency *int
}

// NewManager creates a new integration manager
func NewManager(cfg *config.Config, database *db.DB, logger *log.Logger) (*Manager, error) {
	encryption, err := utils.NewEncryption(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	m := &Manager{
		cfg:        cfg,
		db:         database,
		repo:       db.NewRepository(database),
		logger:     logger,
		encryption: encryption,
		tokens:     utils.NewTokenGenerator(),
		// Per-call timeouts are enforced with request contexts so an
		// integration config can override the default.
		client:     &http.Client{},
		active:     make(map[uint]*models.Integration),
		webhooks:   make(map[uint][]models.Webhook),
		syncTimers: make(map[uint]*syncTimer),
	}
	m.processSync = m.defaultSyncHandler

	return m, nil
}

// Initialize ensures the schema exists and loads all active integrations into
// the cache. Schema failure is fatal; a failed active-integration load leaves
// the service running with an empty cache.
func (m *Manager) Initialize() error {
	if err := m.db.Migrate(); err != nil {
		m.logger.WithError(err).Error("Integration schema creation failed")
		return fmt.Errorf("schema creation failed: %w", err)
	}

	if err := m.db.SeedTemplates(); err != nil {
		m.logger.WithError(err).Warn("Failed to seed integration templates")
	}

	integrations, err := m.repo.GetActiveIntegrations()
	if err != nil {
		m.logger.WithError(err).Error("Failed to load active integrations, starting with empty cache")
		return nil
	}

	for i := range integrations {
		integ := integrations[i]
		webhooks, err := m.repo.GetActiveWebhooksByIntegrationID(integ.ID)
		if err != nil {
			m.logger.WithError(err).WithField("integration_id", integ.ID).Error("Failed to load webhooks")
			webhooks = nil
		}

		m.mu.Lock()
		m.active[integ.ID] = &integ
		m.webhooks[integ.ID] = webhooks
		if integ.SyncFrequency > 0 {
			m.startSyncTimerLocked(&integ)
		}
		m.mu.Unlock()
	}

	m.logger.WithField("count", len(integrations)).Info("Integration manager initialized")
	return nil
}

// Register inserts a new integration with status inactive. The returned row
// carries the generated id and public UUID.
func (m *Manager) Register(input RegisterInput) (*models.Integration, error) {
	if input.Name == "" {
		return nil, newValidationError("name is required")
	}
	if input.Type == "" {
		input.Type = models.TypeAPI
	}
	if !models.IsValidType(input.Type) {
		return nil, newValidationError("unknown integration type: %s", input.Type)
	}
	if input.AuthType == "" {
		input.AuthType = models.AuthNone
	}
	if !models.IsValidAuthType(input.AuthType) {
		return nil, newValidationError("unknown auth type: %s", input.AuthType)
	}

	// The auth-config shape must match the scheme before anything is stored.
	if _, err := authscheme.Parse(input.AuthType, input.AuthConfig); err != nil {
		return nil, newValidationError("invalid auth config: %v", err)
	}

	if _, err := m.repo.GetIntegrationByName(input.Name); err == nil {
		return nil, newValidationError("integration name already exists: %s", input.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check integration name: %w", err)
	}

	syncFrequency := m.cfg.Integration.DefaultSyncFrequency
	if input.SyncFrequency != nil {
		if *input.SyncFrequency < 0 {
			return nil, newValidationError("sync_frequency must not be negative")
		}
		syncFrequency = *input.SyncFrequency
	}

	authConfig, err := m.encryptAuthConfig(input.AuthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt auth config: %w", err)
	}

	integ := &models.Integration{
		UUID:          m.tokens.GenerateIntegrationUUID(),
		Name:          input.Name,
		Type:          input.Type,
		Status:        models.StatusInactive,
		Config:        input.Config,
		AuthType:      input.AuthType,
		AuthConfig:    authConfig,
		SyncFrequency: syncFrequency,
	}

	if err := m.repo.CreateIntegration(integ); err != nil {
		// Unique-index backstop for concurrent registrations with one name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("integration name already exists: %s", input.Name)
		}
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}

	m.logger.LogIntegration(integ.ID, integ.Name, "registered", true, "")
	return integ, nil
}

// Activate marks an integration active, loads its webhooks into the cache and
// starts its sync timer when configured. Activating an already-active
// integration refreshes its cache entry.
func (m *Manager) Activate(id uint) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.repo.UpdateIntegrationStatus(id, models.StatusActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update status: %w", err)
	}

	integ, err := m.repo.GetIntegrationByID(id)
	if err != nil {
		return fmt.Errorf("failed to reload integration: %w", err)
	}

	webhooks, err := m.repo.GetActiveWebhooksByIntegrationID(id)
	if err != nil {
		return fmt.Errorf("failed to load webhooks: %w", err)
	}

	// Replace any running timer before patching the cache entry.
	m.mu.Lock()
	timer := m.syncTimers[id]
	delete(m.syncTimers, id)
	m.mu.Unlock()
	if timer != nil {
		timer.stop()
	}

	m.mu.Lock()
	m.active[id] = integ
	m.webhooks[id] = webhooks
	if integ.SyncFrequency > 0 {
		m.startSyncTimerLocked(integ)
	}
	m.mu.Unlock()

	m.logger.LogIntegration(id, integ.Name, "activated", true, "")
	return nil
}

// Deactivate marks an integration inactive, stops its sync timer and evicts
// it from the cache. The timer is fully stopped before Deactivate returns.
func (m *Manager) Deactivate(id uint) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.repo.UpdateIntegrationStatus(id, models.StatusInactive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update status: %w", err)
	}

	m.evict(id)

	m.logger.LogIntegration(id, "", "deactivated", true, "")
	return nil
}

// Delete removes an integration together with its webhooks and logs.
func (m *Manager) Delete(id uint) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if _, err := m.repo.GetIntegrationByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load integration: %w", err)
	}

	m.evict(id)

	if err := m.repo.DeleteIntegration(id); err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}

	m.logger.LogIntegration(id, "", "deleted", true, "")
	return nil
}

// evict removes id from the cache and stops its timer. Eviction happens
// before the timer stop so a mid-flight sync firing finds the cache entry
// gone and writes nothing.
func (m *Manager) evict(id uint) {
	m.mu.Lock()
	timer := m.syncTimers[id]
	delete(m.syncTimers, id)
	delete(m.active, id)
	delete(m.webhooks, id)
	m.mu.Unlock()

	if timer != nil {
		timer.stop()
	}
}

// ReloadWebhooks refreshes the cached webhook list for an active integration.
// Webhook mutations only reach the dispatcher through this or a reactivation.
func (m *Manager) ReloadWebhooks(id uint) error {
	m.mu.RLock()
	_, isActive := m.active[id]
	m.mu.RUnlock()
	if !isActive {
		return ErrNotFound
	}

	webhooks, err := m.repo.GetActiveWebhooksByIntegrationID(id)
	if err != nil {
		return fmt.Errorf("failed to load webhooks: %w", err)
	}

	m.mu.Lock()
	if _, ok := m.active[id]; ok {
		m.webhooks[id] = webhooks
	}
	m.mu.Unlock()
	return nil
}

// GetStatus returns the integration row, its cache membership and the 10 most
// recent audit log entries.
func (m *Manager) GetStatus(id uint) (*StatusResult, error) {
	integ, err := m.repo.GetIntegrationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load integration: %w", err)
	}

	logs, err := m.repo.GetRecentLogs(id, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	m.mu.RLock()
	_, isActive := m.active[id]
	m.mu.RUnlock()

	return &StatusResult{
		Integration: integ,
		IsActive:    isActive,
		RecentLogs:  logs,
	}, nil
}

// List returns all integrations with their cache membership.
func (m *Manager) List() ([]IntegrationInfo, error) {
	integrations, err := m.repo.ListIntegrations()
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]IntegrationInfo, 0, len(integrations))
	for _, integ := range integrations {
		_, isActive := m.active[integ.ID]
		infos = append(infos, IntegrationInfo{Integration: integ, IsActive: isActive})
	}
	return infos, nil
}

// IsActive reports cache membership for an integration id.
func (m *Manager) IsActive(id uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[id]
	return ok
}

// Shutdown stops all sync timers and clears the cache.
func (m *Manager) Shutdown() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	timers := make([]*syncTimer, 0, len(m.syncTimers))
	for id, timer := range m.syncTimers {
		timers = append(timers, timer)
		delete(m.syncTimers, id)
	}
	m.active = make(map[uint]*models.Integration)
	m.webhooks = make(map[uint][]models.Webhook)
	m.mu.Unlock()

	for _, timer := range timers {
		timer.stop()
	}
	m.wg.Wait()

	m.logger.Info("Integration manager stopped")
}

// Repository exposes the underlying repository for the admin CRUD surface.
func (m *Manager) Repository() *db.Repository {
	return m.repo
}

// parseAuthScheme decrypts and narrows an integration's auth configuration.
func (m *Manager) parseAuthScheme(integ *models.Integration) (authscheme.Scheme, error) {
	authConfig, err := m.decryptAuthConfig(integ.AuthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt auth config: %w", err)
	}
	return authscheme.Parse(integ.AuthType, authConfig)
}

func (m *Manager) encryptAuthConfig(cfg models.JSON) (string, error) {
	if cfg == nil {
		cfg = models.JSON{}
	}
	plain, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return m.encryption.Encrypt(string(plain))
}

func (m *Manager) decryptAuthConfig(ciphertext string) (models.JSON, error) {
	if ciphertext == "" {
		return models.JSON{}, nil
	}
	plain, err := m.encryption.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	var cfg models.JSON
	if err := json.Unmarshal([]byte(plain), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requestTimeout resolves the outbound timeout for an integration config.
func (m *Manager) requestTimeout(cfg models.JSON) time.Duration {
	seconds := m.cfg.Integration.RequestTimeout
	if cfg != nil {
		seconds = cfg.GetInt("timeout", seconds)
	}
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
