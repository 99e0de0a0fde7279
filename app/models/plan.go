package models

import "time"

const (
	BillingFrequencyWeekly   = "weekly"
	BillingFrequencyBiweekly = "biweekly"
	BillingFrequencyMonthly  = "monthly"
)

// Plan is a grocery box subscription offer. BillingFrequency drives how far
// a subscription's next charge moves after each paid cycle.
type Plan struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Slug             string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Name             string    `gorm:"type:varchar(200);not null" json:"name"`
	PriceCents       int64     `gorm:"not null;default:0" json:"price_cents"`
	BillingFrequency string    `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_frequency"`
	IsActive         bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
