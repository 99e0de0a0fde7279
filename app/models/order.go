package models

import "time"

// Payment statuses shared by one-time orders and subscription charge cycles.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusReceived  = "received"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusOverdue   = "overdue"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCanceled  = "canceled"
)

// Order is a one-time purchase created by the checkout flow. Its status is
// only moved by webhook reconciliation or by an explicit admin edit.
type Order struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CustomerID        uint      `gorm:"not null;index" json:"customer_id"`
	TotalCents        int64     `gorm:"not null;default:0" json:"total_cents"`
	PaymentMethod     string    `gorm:"type:varchar(32);default:''" json:"payment_method"`
	GatewayPaymentID  *string   `gorm:"type:varchar(191);uniqueIndex:ux_orders_gateway_payment" json:"gateway_payment_id,omitempty"`
	GatewayCustomerID string    `gorm:"type:varchar(191);default:'';index" json:"gateway_customer_id"`
	Status            string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
