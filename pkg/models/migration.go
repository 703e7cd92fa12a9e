package models

import (
	"gorm.io/gorm"
)

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Integration{},
		&Webhook{},
		&IntegrationLog{},
		&IntegrationTemplate{},
	)
}

// CreateIndexes adds the composite indexes for common queries. MySQL has no
// CREATE INDEX IF NOT EXISTS, so existence is checked through the migrator.
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		model interface{}
		name  string
		stmt  string
	}{
		{&Webhook{}, "idx_webhooks_integration_event",
			"CREATE INDEX idx_webhooks_integration_event ON webhooks(integration_id, event_type)"},
		{&IntegrationLog{}, "idx_logs_integration_timestamp",
			"CREATE INDEX idx_logs_integration_timestamp ON integration_logs(integration_id, timestamp)"},
		{&IntegrationLog{}, "idx_logs_direction_status",
			"CREATE INDEX idx_logs_direction_status ON integration_logs(direction, status)"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}
		if err := db.Exec(idx.stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
