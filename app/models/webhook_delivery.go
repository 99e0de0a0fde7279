package models

import "time"

const (
	DeliveryOutcomeApplied   = "applied"
	DeliveryOutcomeDuplicate = "duplicate"
	DeliveryOutcomeRejected  = "rejected"
	DeliveryOutcomeFailed    = "failed"
)

// WebhookDelivery keeps the raw payload of every inbound webhook together
// with how it was handled, for audit and manual review.
type WebhookDelivery struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Provider    string    `gorm:"type:varchar(20);not null;index" json:"provider"`
	EventID     string    `gorm:"type:varchar(191);not null;default:'';index" json:"event_id"`
	EventType   string    `gorm:"type:varchar(64);not null;default:'';index" json:"event_type"`
	Outcome     string    `gorm:"type:varchar(16);not null;index" json:"outcome"`
	Reason      string    `gorm:"type:text" json:"reason"`
	PayloadJSON string    `gorm:"type:text;not null" json:"payload_json"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
