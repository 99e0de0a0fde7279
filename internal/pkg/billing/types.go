package billing

import (
	"strings"
	"time"
)

// EventType is the closed set of gateway notifications the engine applies.
type EventType string

const (
	EventPaymentReceived         EventType = "PAYMENT_RECEIVED"
	EventPaymentConfirmed        EventType = "PAYMENT_CONFIRMED"
	EventPaymentOverdue          EventType = "PAYMENT_OVERDUE"
	EventPaymentRefunded         EventType = "PAYMENT_REFUNDED"
	EventPaymentDeleted          EventType = "PAYMENT_DELETED"
	EventSubscriptionCreated     EventType = "SUBSCRIPTION_CREATED"
	EventSubscriptionUpdated     EventType = "SUBSCRIPTION_UPDATED"
	EventSubscriptionCanceled    EventType = "SUBSCRIPTION_CANCELED"
	EventSubscriptionDeleted     EventType = "SUBSCRIPTION_DELETED"
	EventSubscriptionInactivated EventType = "SUBSCRIPTION_INACTIVATED"
)

var knownEventTypes = map[EventType]struct{}{
	EventPaymentReceived:         {},
	EventPaymentConfirmed:        {},
	EventPaymentOverdue:          {},
	EventPaymentRefunded:         {},
	EventPaymentDeleted:          {},
	EventSubscriptionCreated:     {},
	EventSubscriptionUpdated:     {},
	EventSubscriptionCanceled:    {},
	EventSubscriptionDeleted:     {},
	EventSubscriptionInactivated: {},
}

// IsKnown reports whether t belongs to the recognized enumeration.
func (t EventType) IsKnown() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// IsSubscriptionEvent reports whether t concerns the subscription lifecycle
// rather than an individual charge.
func (t EventType) IsSubscriptionEvent() bool {
	return strings.HasPrefix(string(t), "SUBSCRIPTION_")
}

// EventSource names the envelope object an event was read from.
type EventSource string

const (
	SourcePayment      EventSource = "payment"
	SourceSubscription EventSource = "subscription"
)

// GatewayEvent is the normalized, read-only view of one webhook delivery.
type GatewayEvent struct {
	EventID               string
	Type                  EventType
	Source                EventSource
	OccurredAt            time.Time
	GatewayPaymentID      string
	GatewaySubscriptionID string
	GatewayCustomerID     string
	AmountCents           int64
	BillingMethod         string
	GatewayStatus         string
	Cycle                 string
	DueDate               *time.Time
	NextDueDate           *time.Time
	ExternalReference     string
	Raw                   []byte
}

// Result describes what Reconcile did with an event.
type Result struct {
	EventID         string
	EventType       EventType
	TargetKind      string
	TargetID        uint
	PreviousStatus  string
	ResultingStatus string
	Duplicate       bool
	NoOp            bool
}
