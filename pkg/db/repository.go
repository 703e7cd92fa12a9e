package db

import (
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"gorm.io/gorm"
)

type TimeSeriesData struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DeliveryStatsData struct {
	IntegrationID   uint    `json:"integration_id"`
	IntegrationName string  `json:"integration_name"`
	TotalAttempts   int     `json:"total_attempts"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
}

type ErrorRateData struct {
	IntegrationName string  `json:"integration_name"`
	Date            string  `json:"date"`
	ErrorRate       float64 `json:"error_rate"`
	ErrorCount      int     `json:"error_count"`
	TotalCount      int     `json:"total_count"`
}

type EventTypeUsageData struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// Repository provides database operations for specific models
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *DB {
	return r.db
}

// Integration repository methods
func (r *Repository) CreateIntegration(integration *models.Integration) error {
	return r.db.Create(integration).Error
}

func (r *Repository) GetIntegrationByID(id uint) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.First(&integration, id).Error
	return &integration, err
}

func (r *Repository) GetIntegrationByUUID(uuid string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("uuid = ?", uuid).First(&integration).Error
	return &integration, err
}

func (r *Repository) GetIntegrationByName(name string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.Where("name = ?", name).First(&integration).Error
	return &integration, err
}

func (r *Repository) ListIntegrations() ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.Order("created_at DESC").Find(&integrations).Error
	return integrations, err
}

func (r *Repository) GetActiveIntegrations() ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.Where("status = ?", models.StatusActive).Find(&integrations).Error
	return integrations, err
}

func (r *Repository) UpdateIntegration(integration *models.Integration) error {
	return r.db.Save(integration).Error
}

func (r *Repository) UpdateIntegrationStatus(id uint, status models.IntegrationStatus) error {
	result := r.db.Model(&models.Integration{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) UpdateLastSync(id uint, t time.Time) error {
	return r.db.Model(&models.Integration{}).Where("id = ?", id).Update("last_sync", t).Error
}

// DeleteIntegration removes an integration with its webhooks and logs in one
// transaction. The FK cascade covers stores that enforce it; the explicit
// deletes keep SQLite without foreign_keys pragma correct too.
func (r *Repository) DeleteIntegration(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", id).Delete(&models.Webhook{}).Error; err != nil {
			return err
		}
		if err := tx.Where("integration_id = ?", id).Delete(&models.IntegrationLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Integration{}, id).Error
	})
}

// Webhook repository methods
func (r *Repository) CreateWebhook(webhook *models.Webhook) error {
	return r.db.Create(webhook).Error
}

func (r *Repository) GetWebhookByID(id uint) (*models.Webhook, error) {
	var webhook models.Webhook
	err := r.db.First(&webhook, id).Error
	return &webhook, err
}

func (r *Repository) GetWebhooksByIntegrationID(integrationID uint) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("integration_id = ?", integrationID).Find(&webhooks).Error
	return webhooks, err
}

func (r *Repository) GetActiveWebhooksByIntegrationID(integrationID uint) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("integration_id = ? AND active = ?", integrationID, true).Find(&webhooks).Error
	return webhooks, err
}

func (r *Repository) UpdateWebhook(webhook *models.Webhook) error {
	return r.db.Save(webhook).Error
}

func (r *Repository) DeleteWebhook(id uint) error {
	return r.db.Delete(&models.Webhook{}, id).Error
}

// IntegrationLog repository methods. Logs are append-only; there are no
// update or delete operations.
func (r *Repository) CreateLog(logEntry *models.IntegrationLog) error {
	return r.db.Create(logEntry).Error
}

func (r *Repository) GetRecentLogs(integrationID uint, limit int) ([]models.IntegrationLog, error) {
	var logs []models.IntegrationLog
	err := r.db.Where("integration_id = ?", integrationID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *Repository) GetLogsCount(integrationID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.IntegrationLog{}).
		Where("integration_id = ?", integrationID).
		Count(&count).Error
	return int(count), err
}

// Template repository methods
func (r *Repository) GetTemplates() ([]models.IntegrationTemplate, error) {
	var templates []models.IntegrationTemplate
	err := r.db.Where("is_active = ?", true).Find(&templates).Error
	return templates, err
}

func (r *Repository) GetTemplateByName(name string) (*models.IntegrationTemplate, error) {
	var template models.IntegrationTemplate
	err := r.db.Where("name = ?", name).First(&template).Error
	return &template, err
}

// Analytics queries over integration_logs
func (r *Repository) GetDeliveryStats() ([]DeliveryStatsData, error) {
	type DeliveryBreakdown struct {
		IntegrationID   uint
		IntegrationName string
		TotalAttempts   int
		Successful      int
		Failed          int
	}

	var results []DeliveryBreakdown
	err := r.db.Table("integrations").
		Select(`
			integrations.id as integration_id,
			integrations.name as integration_name,
			COUNT(integration_logs.id) as total_attempts,
			COUNT(CASE WHEN integration_logs.status = 'success' THEN 1 END) as successful,
			COUNT(CASE WHEN integration_logs.status = 'error' THEN 1 END) as failed
		`).
		Joins("LEFT JOIN integration_logs ON integrations.id = integration_logs.integration_id AND integration_logs.direction = 'outgoing'").
		Group("integrations.id, integrations.name").
		Scan(&results).Error

	var stats []DeliveryStatsData
	for _, result := range results {
		successRate := float64(0)
		if result.TotalAttempts > 0 {
			successRate = (float64(result.Successful) / float64(result.TotalAttempts)) * 100
		}

		stats = append(stats, DeliveryStatsData{
			IntegrationID:   result.IntegrationID,
			IntegrationName: result.IntegrationName,
			TotalAttempts:   result.TotalAttempts,
			Successful:      result.Successful,
			Failed:          result.Failed,
			SuccessRate:     successRate,
		})
	}

	return stats, err
}

func (r *Repository) GetErrorRates(days int) ([]ErrorRateData, error) {
	type ErrorRateBreakdown struct {
		IntegrationName string
		Date            string
		ErrorCount      int
		TotalCount      int
	}

	var results []ErrorRateBreakdown
	err := r.db.Table("integrations").
		Select(`
			integrations.name as integration_name,
			DATE(integration_logs.timestamp) as date,
			COUNT(CASE WHEN integration_logs.status = 'error' THEN 1 END) as error_count,
			COUNT(integration_logs.id) as total_count
		`).
		Joins("JOIN integration_logs ON integrations.id = integration_logs.integration_id").
		Where("integration_logs.timestamp >= ?", time.Now().AddDate(0, 0, -days)).
		Group("integrations.name, DATE(integration_logs.timestamp)").
		Order("date").
		Scan(&results).Error

	var errorRates []ErrorRateData
	for _, result := range results {
		errorRate := float64(0)
		if result.TotalCount > 0 {
			errorRate = (float64(result.ErrorCount) / float64(result.TotalCount)) * 100
		}

		errorRates = append(errorRates, ErrorRateData{
			IntegrationName: result.IntegrationName,
			Date:            result.Date,
			ErrorRate:       errorRate,
			ErrorCount:      result.ErrorCount,
			TotalCount:      result.TotalCount,
		})
	}

	return errorRates, err
}

func (r *Repository) GetLogVolumeOverTime(days int) ([]TimeSeriesData, error) {
	type DateCount struct {
		Date  string
		Count int
	}

	var results []DateCount
	err := r.db.Model(&models.IntegrationLog{}).
		Select("DATE(timestamp) as date, COUNT(*) as count").
		Where("timestamp >= ?", time.Now().AddDate(0, 0, -days)).
		Group("DATE(timestamp)").
		Order("date").
		Scan(&results).Error

	var timeSeries []TimeSeriesData
	for _, result := range results {
		timeSeries = append(timeSeries, TimeSeriesData{
			Date:  result.Date,
			Count: result.Count,
		})
	}

	return timeSeries, err
}

func (r *Repository) GetEventTypeBreakdown() ([]EventTypeUsageData, error) {
	type EventCount struct {
		EventType string
		Count     int
	}

	var results []EventCount
	err := r.db.Model(&models.IntegrationLog{}).
		Select("event_type, COUNT(*) as count").
		Where("direction = ?", models.DirectionOutgoing).
		Group("event_type").
		Order("count DESC").
		Scan(&results).Error

	var usage []EventTypeUsageData
	for _, result := range results {
		usage = append(usage, EventTypeUsageData{
			EventType: result.EventType,
			Count:     result.Count,
		})
	}

	return usage, err
}
