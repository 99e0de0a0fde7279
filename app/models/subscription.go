package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPaused   = "paused"
	SubscriptionStatusOverdue  = "overdue"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is a recurring grocery box. Each billing period is tracked as
// a ChargeCycle; the subscription row only carries the aggregate status and
// the cycle bookkeeping dates.
type Subscription struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CustomerID            uint      `gorm:"not null;index" json:"customer_id"`
	PlanID                *uint     `gorm:"index" json:"plan_id,omitempty"`
	GatewaySubscriptionID *string   `gorm:"type:varchar(191);uniqueIndex:ux_subscriptions_gateway_subscription" json:"gateway_subscription_id,omitempty"`
	GatewayCustomerID     string    `gorm:"type:varchar(191);default:'';index" json:"gateway_customer_id"`
	BillingFrequency      string    `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_frequency"`
	Status                string    `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	CycleStartAt          time.Time `json:"cycle_start_at"`
	NextChargeAt          time.Time `gorm:"index" json:"next_charge_at"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
