package models

import (
	"time"
)

// IntegrationType enum
type IntegrationType string

const (
	TypeAPI      IntegrationType = "api"
	TypeWebhook  IntegrationType = "webhook"
	TypeDatabase IntegrationType = "database"
	TypeFile     IntegrationType = "file"
)

// IntegrationStatus enum
type IntegrationStatus string

const (
	StatusActive   IntegrationStatus = "active"
	StatusInactive IntegrationStatus = "inactive"
	StatusError    IntegrationStatus = "error"
)

// AuthType enum
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api_key"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthOAuth  AuthType = "oauth"
)

// Integration represents a configured external connection
type Integration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"uniqueIndex;not null" json:"uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name   string            `gorm:"uniqueIndex;not null" json:"name"`
	Type   IntegrationType   `gorm:"default:'api';not null" json:"type"`
	Status IntegrationStatus `gorm:"default:'inactive';index;not null" json:"status"`

	// Connection document: method, endpoint, headers, timeout, syncEndpoint
	Config JSON `gorm:"type:json" json:"config"`

	AuthType AuthType `gorm:"default:'none';not null" json:"auth_type"`
	// AES-256-GCM encrypted auth-config document, base64 encoded
	AuthConfig string `gorm:"type:text" json:"-"`

	// No column default: a zero here means sync is disabled and must survive
	// the INSERT. Registration fills in the configured default itself.
	SyncFrequency int        `json:"sync_frequency"` // seconds; 0 disables sync
	LastSync      *time.Time `json:"last_sync,omitempty"`

	// Relationships
	Webhooks []Webhook        `gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE" json:"webhooks,omitempty"`
	Logs     []IntegrationLog `gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE" json:"logs,omitempty"`
}

// IsValidType reports whether t is a known integration type.
func IsValidType(t IntegrationType) bool {
	switch t {
	case TypeAPI, TypeWebhook, TypeDatabase, TypeFile:
		return true
	}
	return false
}

// IsValidAuthType reports whether a is a known auth scheme.
func IsValidAuthType(a AuthType) bool {
	switch a {
	case AuthNone, AuthAPIKey, AuthBearer, AuthBasic, AuthOAuth:
		return true
	}
	return false
}
