package models

import "time"

const (
	TargetKindOrder        = "order"
	TargetKindChargeCycle  = "charge_cycle"
	TargetKindSubscription = "subscription"
)

// IdempotencyRecord marks a gateway event as applied. It is inserted in the
// same transaction as the state change it guards.
type IdempotencyRecord struct {
	EventID         string    `gorm:"primaryKey;type:varchar(191)" json:"event_id"`
	EventType       string    `gorm:"type:varchar(64);not null;default:''" json:"event_type"`
	TargetKind      string    `gorm:"type:varchar(32);not null;default:''" json:"target_kind"`
	TargetID        uint      `gorm:"not null;default:0" json:"target_id"`
	ResultingStatus string    `gorm:"type:varchar(16);not null;default:''" json:"resulting_status"`
	AppliedAt       time.Time `gorm:"not null;index" json:"applied_at"`
}

func (IdempotencyRecord) TableName() string {
	return "gateway_event_ledger"
}
