package models

import "time"

// ChargeCycle is one billing period of a Subscription. Payment webhooks for a
// subscription reconcile against the cycle, using the PaymentStatus* values.
type ChargeCycle struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID   uint      `gorm:"not null;index:ux_charge_cycles_subscription_sequence,unique,priority:1" json:"subscription_id"`
	Sequence         int       `gorm:"not null;index:ux_charge_cycles_subscription_sequence,unique,priority:2" json:"sequence"`
	GatewayPaymentID *string   `gorm:"type:varchar(191);uniqueIndex:ux_charge_cycles_gateway_payment" json:"gateway_payment_id,omitempty"`
	AmountCents      int64     `gorm:"not null;default:0" json:"amount_cents"`
	DueAt            time.Time `gorm:"index" json:"due_at"`
	Status           string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
