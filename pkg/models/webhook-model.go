package models

import (
	"time"
)

// WildcardEvent subscribes a webhook to every event type.
const WildcardEvent = "*"

// Webhook represents a subscription of one integration to one event type
type Webhook struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	IntegrationID uint        `gorm:"not null;index" json:"integration_id"`
	Integration   Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`

	// Literal event type or WildcardEvent
	EventType   string `gorm:"not null;index" json:"event_type"`
	EndpointURL string `gorm:"not null" json:"endpoint_url"`

	// Signing key for X-Webhook-Signature; empty means unsigned delivery
	SecretKey string `json:"-"`

	// No column default: gorm drops zero-valued fields carrying one from the
	// INSERT, which would persist a disabled webhook as enabled. The create
	// path sets the flag explicitly.
	Active bool `json:"active"`
}

// Matches reports whether the webhook subscribes to the given event type.
func (w *Webhook) Matches(eventType string) bool {
	return w.EventType == WildcardEvent || w.EventType == eventType
}
