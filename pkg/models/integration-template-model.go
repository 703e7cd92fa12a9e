package models

import (
	"time"
)

// IntegrationTemplate is a preconfigured integration catalog entry exposed to
// administrators as a starting point for registration.
type IntegrationTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string          `gorm:"uniqueIndex;not null" json:"name"` // slack-notify, github, etc.
	DisplayName string          `gorm:"not null" json:"display_name"`
	Description string          `json:"description,omitempty"`
	IconURL     string          `json:"icon_url,omitempty"`
	Type        IntegrationType `gorm:"default:'api'" json:"type"`
	AuthType    AuthType        `gorm:"default:'none'" json:"auth_type"`
	IsActive    bool            `json:"is_active"`

	// Configuration schema (JSON defining required fields)
	ConfigSchema JSON `gorm:"type:json" json:"config_schema"`
}
