package billing

import (
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreshFox/app/models"
)

// target is the locked local record an event applies to. For charge cycles
// the owning subscription is locked and set as well.
type target struct {
	kind                string
	order               *models.Order
	subscription        *models.Subscription
	cycle               *models.ChargeCycle
	linkedPayment       bool
	createdSubscription bool
}

func (t *target) id() uint {
	switch t.kind {
	case models.TargetKindOrder:
		return t.order.ID
	case models.TargetKindChargeCycle:
		return t.cycle.ID
	default:
		return t.subscription.ID
	}
}

// resolveTarget locates, and for subscriptions first seen on the gateway
// creates, the record ev applies to. Orders are never created here.
func resolveTarget(repo Repository, ev *GatewayEvent, now time.Time) (*target, error) {
	if ev.GatewaySubscriptionID != "" {
		return resolveSubscriptionTarget(repo, ev, now)
	}
	if ev.GatewayPaymentID == "" {
		return nil, fmt.Errorf("%w: event %s carries neither payment nor subscription id", ErrMalformedPayload, ev.EventID)
	}

	order, err := repo.FindOrderByGatewayPaymentIDForUpdate(ev.GatewayPaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no order for payment %s", ErrUnresolvedReference, ev.GatewayPaymentID)
		}
		return nil, err
	}
	return &target{kind: models.TargetKindOrder, order: order}, nil
}

func resolveSubscriptionTarget(repo Repository, ev *GatewayEvent, now time.Time) (*target, error) {
	if ev.Type.IsSubscriptionEvent() && ev.Source != SourceSubscription {
		return nil, fmt.Errorf("%w: %s carries a payment object, not a subscription", ErrInvalidTransition, ev.Type)
	}
	t := &target{kind: models.TargetKindSubscription}

	sub, err := repo.FindSubscriptionByGatewayIDForUpdate(ev.GatewaySubscriptionID)
	switch {
	case err == nil:
		t.subscription = sub
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub, created, err := createSubscription(repo, ev, now)
		if err != nil {
			return nil, err
		}
		t.subscription = sub
		t.createdSubscription = created
	default:
		return nil, err
	}

	if ev.Type.IsSubscriptionEvent() {
		return t, nil
	}

	if ev.GatewayPaymentID == "" {
		return nil, fmt.Errorf("%w: payment event %s without payment id", ErrMalformedPayload, ev.EventID)
	}
	t.kind = models.TargetKindChargeCycle

	cycle, err := repo.FindChargeCycleByGatewayPaymentIDForUpdate(t.subscription.ID, ev.GatewayPaymentID)
	if err == nil {
		t.cycle = cycle
		return t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// First event for this payment: only a charge attempt may claim the
	// open cycle. A refund or deletion of a payment never seen is stray.
	if !claimsOpenCycle(ev.Type) {
		return nil, fmt.Errorf("%w: %s for unknown payment %s on subscription %s",
			ErrUnresolvedReference, ev.Type, ev.GatewayPaymentID, ev.GatewaySubscriptionID)
	}
	cycle, err = repo.FindOpenChargeCycleForUpdate(t.subscription.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no open charge cycle on subscription %s for payment %s",
				ErrUnresolvedReference, ev.GatewaySubscriptionID, ev.GatewayPaymentID)
		}
		return nil, err
	}
	paymentID := ev.GatewayPaymentID
	cycle.GatewayPaymentID = &paymentID
	if ev.AmountCents > 0 {
		cycle.AmountCents = ev.AmountCents
	}
	t.cycle = cycle
	t.linkedPayment = true
	return t, nil
}

func claimsOpenCycle(event EventType) bool {
	switch event {
	case EventPaymentReceived, EventPaymentConfirmed, EventPaymentOverdue:
		return true
	default:
		return false
	}
}

// createSubscription links or creates the customer, maps the plan and
// inserts the subscription with its first pending cycle. A concurrent
// creator wins the insert; the loser re-reads and skips the cycle.
func createSubscription(repo Repository, ev *GatewayEvent, now time.Time) (*models.Subscription, bool, error) {
	if ev.GatewayCustomerID == "" {
		return nil, false, fmt.Errorf("%w: subscription %s first seen without customer id", ErrMalformedPayload, ev.GatewaySubscriptionID)
	}

	customer, err := repo.CreateCustomerIfNotExists(&models.Customer{GatewayCustomerID: ev.GatewayCustomerID})
	if err != nil {
		return nil, false, err
	}

	plan, err := lookupPlan(repo, ev.ExternalReference)
	if err != nil {
		return nil, false, err
	}

	frequency := normalizeFrequency(ev.Cycle)
	var planID *uint
	amount := ev.AmountCents
	if plan != nil {
		id := plan.ID
		planID = &id
		if f := normalizeFrequency(plan.BillingFrequency); f != "" {
			frequency = f
		}
		if amount == 0 {
			amount = plan.PriceCents
		}
	}
	if frequency == "" {
		frequency = models.BillingFrequencyMonthly
	}

	firstCharge := now
	switch {
	case ev.NextDueDate != nil:
		firstCharge = *ev.NextDueDate
	case ev.DueDate != nil:
		firstCharge = *ev.DueDate
	}

	gatewayID := ev.GatewaySubscriptionID
	created, sub, err := repo.CreateSubscriptionIfNotExists(&models.Subscription{
		CustomerID:            customer.ID,
		PlanID:                planID,
		GatewaySubscriptionID: &gatewayID,
		GatewayCustomerID:     ev.GatewayCustomerID,
		BillingFrequency:      frequency,
		Status:                models.SubscriptionStatusActive,
		CycleStartAt:          now,
		NextChargeAt:          firstCharge,
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		return sub, false, nil
	}

	if err := repo.CreateChargeCycle(&models.ChargeCycle{
		SubscriptionID: sub.ID,
		Sequence:       1,
		AmountCents:    amount,
		DueAt:          firstCharge,
		Status:         models.PaymentStatusPending,
	}); err != nil {
		return nil, false, err
	}

	fiberlog.Infof("[Billing] Created subscription %d for gateway subscription %s (customer %d, frequency %s)",
		sub.ID, gatewayID, customer.ID, frequency)
	return sub, true, nil
}

// lookupPlan maps the gateway external reference onto an active plan. An
// unmapped reference yields a nil plan.
func lookupPlan(repo Repository, externalReference string) (*models.Plan, error) {
	slug := planSlugFromReference(externalReference)
	if slug == "" {
		return nil, nil
	}
	plan, err := repo.FindPlanBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}
