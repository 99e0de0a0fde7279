package billing

import (
	"fmt"

	"github.com/ManuelReschke/FreshFox/app/models"
)

// paymentTransitions is keyed by current status, then incoming event.
// Terminal statuses are handled before the lookup.
var paymentTransitions = map[string]map[EventType]string{
	models.PaymentStatusPending: {
		EventPaymentReceived:  models.PaymentStatusReceived,
		EventPaymentConfirmed: models.PaymentStatusConfirmed,
		EventPaymentOverdue:   models.PaymentStatusOverdue,
		EventPaymentRefunded:  models.PaymentStatusRefunded,
		EventPaymentDeleted:   models.PaymentStatusCanceled,
	},
	models.PaymentStatusReceived: {
		EventPaymentReceived:  models.PaymentStatusReceived,
		EventPaymentConfirmed: models.PaymentStatusConfirmed,
		EventPaymentOverdue:   models.PaymentStatusOverdue,
		EventPaymentRefunded:  models.PaymentStatusRefunded,
		EventPaymentDeleted:   models.PaymentStatusCanceled,
	},
	models.PaymentStatusConfirmed: {
		EventPaymentReceived:  models.PaymentStatusConfirmed,
		EventPaymentConfirmed: models.PaymentStatusConfirmed,
		EventPaymentOverdue:   models.PaymentStatusOverdue,
		EventPaymentRefunded:  models.PaymentStatusRefunded,
		EventPaymentDeleted:   models.PaymentStatusCanceled,
	},
	models.PaymentStatusOverdue: {
		EventPaymentReceived:  models.PaymentStatusReceived,
		EventPaymentConfirmed: models.PaymentStatusConfirmed,
		EventPaymentOverdue:   models.PaymentStatusOverdue,
		EventPaymentRefunded:  models.PaymentStatusRefunded,
		EventPaymentDeleted:   models.PaymentStatusCanceled,
	},
}

// IsTerminalPaymentStatus reports whether no event may move status anymore.
func IsTerminalPaymentStatus(status string) bool {
	return status == models.PaymentStatusRefunded || status == models.PaymentStatusCanceled
}

// IsPaidStatus reports whether a charge in status has been paid.
func IsPaidStatus(status string) bool {
	return status == models.PaymentStatusReceived || status == models.PaymentStatusConfirmed
}

// NextOrderStatus returns the status an order or charge cycle moves to when
// event arrives in current. Terminal statuses absorb every payment event.
func NextOrderStatus(current string, event EventType) (string, error) {
	if event.IsSubscriptionEvent() {
		return "", fmt.Errorf("%w: %s against payment in status %q", ErrInvalidTransition, event, current)
	}
	if IsTerminalPaymentStatus(current) {
		if event.IsKnown() {
			return current, nil
		}
		return "", fmt.Errorf("%w: %s against payment in status %q", ErrInvalidTransition, event, current)
	}
	next, ok := paymentTransitions[current][event]
	if !ok {
		return "", fmt.Errorf("%w: %s against payment in status %q", ErrInvalidTransition, event, current)
	}
	return next, nil
}

// NextSubscriptionStatus returns the status a subscription moves to when a
// lifecycle event arrives. Canceled absorbs everything.
func NextSubscriptionStatus(current string, event EventType) (string, error) {
	if !event.IsSubscriptionEvent() {
		return "", fmt.Errorf("%w: %s against subscription in status %q", ErrInvalidTransition, event, current)
	}
	switch current {
	case models.SubscriptionStatusCanceled:
		return current, nil
	case models.SubscriptionStatusActive, models.SubscriptionStatusOverdue, models.SubscriptionStatusPaused:
	default:
		return "", fmt.Errorf("%w: %s against subscription in status %q", ErrInvalidTransition, event, current)
	}

	switch event {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return current, nil
	case EventSubscriptionCanceled, EventSubscriptionDeleted, EventSubscriptionInactivated:
		return models.SubscriptionStatusCanceled, nil
	default:
		return "", fmt.Errorf("%w: %s against subscription in status %q", ErrInvalidTransition, event, current)
	}
}

// SubscriptionStatusAfterCharge derives the subscription status from the new
// status of its current charge cycle. Paused and canceled subscriptions are
// not moved by charges.
func SubscriptionStatusAfterCharge(current, chargeStatus string) string {
	switch current {
	case models.SubscriptionStatusActive, models.SubscriptionStatusOverdue:
	default:
		return current
	}
	switch {
	case IsPaidStatus(chargeStatus):
		return models.SubscriptionStatusActive
	case chargeStatus == models.PaymentStatusOverdue:
		return models.SubscriptionStatusOverdue
	default:
		return current
	}
}
