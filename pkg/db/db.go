package db

import (
	"context"
	"fmt"
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/config"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
	"gorm.io/driver/mysql"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the gorm.DB instance with additional functionality
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// Configure GORM
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Map driver errors onto gorm.ErrDuplicatedKey and friends.
		TranslateError: true,
	}

	// Open database connection
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	if err := models.AutoMigrate(db.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := models.CreateIndexes(db.DB); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// SeedTemplates seeds the integration template catalog
func (db *DB) SeedTemplates() error {
	templates := []models.IntegrationTemplate{
		{
			Name:        "slack-notify",
			DisplayName: "Slack Notifications",
			Description: "Forward course events to a Slack incoming webhook",
			IconURL:     "https://a.slack-edge.com/80588/marketing/img/icons/icon_slack_hash_colored.png",
			Type:        models.TypeWebhook,
			AuthType:    models.AuthNone,
			IsActive:    true,
			ConfigSchema: models.JSON{
				"endpoint": map[string]interface{}{
					"type":        "string",
					"required":    true,
					"description": "Slack incoming webhook URL",
					"pattern":     "^https://hooks\\.slack\\.com/",
				},
			},
		},
		{
			Name:        "google-calendar",
			DisplayName: "Google Calendar",
			Description: "Push timetable changes to a Google Calendar",
			IconURL:     "https://ssl.gstatic.com/calendar/images/dynamiclogo_2020q4/calendar_31_2x.png",
			Type:        models.TypeAPI,
			AuthType:    models.AuthOAuth,
			IsActive:    true,
			ConfigSchema: models.JSON{
				"endpoint": map[string]interface{}{
					"type":        "string",
					"required":    true,
					"description": "Calendar events API endpoint",
				},
				"syncEndpoint": map[string]interface{}{
					"type":        "string",
					"required":    false,
					"description": "Endpoint polled for upstream calendar changes",
				},
			},
		},
		{
			Name:        "github",
			DisplayName: "GitHub",
			Description: "Create issues for assignment submissions via the GitHub API",
			IconURL:     "https://github.githubassets.com/images/modules/logos_page/GitHub-Mark.png",
			Type:        models.TypeAPI,
			AuthType:    models.AuthBearer,
			IsActive:    true,
			ConfigSchema: models.JSON{
				"endpoint": map[string]interface{}{
					"type":        "string",
					"required":    true,
					"description": "GitHub REST endpoint",
					"pattern":     "^https://api\\.github\\.com/",
				},
			},
		},
		{
			Name:        "generic-webhook",
			DisplayName: "Generic Webhook",
			Description: "Deliver signed event payloads to any HTTP endpoint",
			IconURL:     "https://cdn-icons-png.flaticon.com/512/2164/2164832.png",
			Type:        models.TypeWebhook,
			AuthType:    models.AuthNone,
			IsActive:    true,
			ConfigSchema: models.JSON{
				"endpoint": map[string]interface{}{
					"type":        "string",
					"required":    true,
					"description": "Target URL",
					"pattern":     "^https?://",
				},
				"method": map[string]interface{}{
					"type":        "string",
					"required":    false,
					"description": "HTTP method",
					"default":     "POST",
					"enum":        []string{"POST", "PUT", "PATCH"},
				},
				"headers": map[string]interface{}{
					"type":        "object",
					"required":    false,
					"description": "Custom headers",
				},
			},
		},
		{
			Name:        "crm-sync",
			DisplayName: "CRM Sync",
			Description: "Periodically pull enrolment data from an external CRM",
			IconURL:     "https://cdn-icons-png.flaticon.com/512/user/crm.png",
			Type:        models.TypeAPI,
			AuthType:    models.AuthAPIKey,
			IsActive:    true,
			ConfigSchema: models.JSON{
				"syncEndpoint": map[string]interface{}{
					"type":        "string",
					"required":    true,
					"description": "CRM endpoint polled on the sync schedule",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"required":    false,
					"description": "Request timeout in seconds",
					"default":     30,
				},
			},
		},
	}

	for _, template := range templates {
		var existing models.IntegrationTemplate
		result := db.Where("name = ?", template.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := db.Create(&template).Error; err != nil {
				return fmt.Errorf("failed to seed template %s: %w", template.Name, err)
			}
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Transaction executes a function within a database transaction
func (db *DB) Transaction(fn func(*gorm.DB) error) error {
	return db.DB.Transaction(fn)
}
