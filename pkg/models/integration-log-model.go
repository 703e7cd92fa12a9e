package models

import (
	"time"
)

// LogDirection enum
type LogDirection string

const (
	DirectionOutgoing LogDirection = "outgoing"
	DirectionIncoming LogDirection = "incoming"
)

// LogStatus enum
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogError   LogStatus = "error"
	LogPending LogStatus = "pending"
)

// IntegrationLog is an append-only audit record of one integration attempt.
// Rows are never updated or deleted by the service.
type IntegrationLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	IntegrationID uint        `gorm:"not null;index" json:"integration_id"`
	Integration   Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`

	EventType string       `gorm:"not null" json:"event_type"`
	Direction LogDirection `gorm:"not null" json:"direction"`
	Status    LogStatus    `gorm:"not null;index" json:"status"`

	RequestData  JSON   `gorm:"type:json" json:"request_data,omitempty"`
	ResponseData JSON   `gorm:"type:json" json:"response_data,omitempty"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
