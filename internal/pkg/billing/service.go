package billing

import (
	"context"
	"errors"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/FreshFox/app/models"
)

// ProviderAsaas is the only gateway the storefront bills through.
const ProviderAsaas = "asaas"

// AppliedEventCache is an optional fast path in front of the ledger. It is
// only consulted to short-circuit duplicates; the ledger stays authoritative.
type AppliedEventCache interface {
	AppliedStatus(ctx context.Context, eventID string) (string, bool)
	RememberApplied(ctx context.Context, eventID, resultingStatus string)
}

// Service reconciles gateway webhooks into local order and subscription state.
type Service struct {
	repo  Repository
	cache AppliedEventCache
	now   func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WithAppliedEventCache attaches a duplicate fast path and returns s.
func (s *Service) WithAppliedEventCache(cache AppliedEventCache) *Service {
	s.cache = cache
	return s
}

// Reconcile parses a raw webhook body and applies it at most once. Errors
// matching IsRejection must be acknowledged; all others are transient.
func (s *Service) Reconcile(ctx context.Context, raw []byte) (*Result, error) {
	ev, err := ParseGatewayEvent(raw)
	if err != nil {
		s.recordDelivery(ctx, nil, raw, models.DeliveryOutcomeRejected, err)
		return nil, err
	}

	if s.cache != nil {
		if status, ok := s.cache.AppliedStatus(ctx, ev.EventID); ok {
			res := &Result{EventID: ev.EventID, EventType: ev.Type, ResultingStatus: status, Duplicate: true}
			s.recordDelivery(ctx, ev, raw, models.DeliveryOutcomeDuplicate, nil)
			return res, nil
		}
	}

	res, err := s.apply(ctx, ev)
	switch {
	case err == nil && res.Duplicate:
		s.recordDelivery(ctx, ev, raw, models.DeliveryOutcomeDuplicate, nil)
	case err == nil:
		s.recordDelivery(ctx, ev, raw, models.DeliveryOutcomeApplied, nil)
	case IsRejection(err):
		s.recordDelivery(ctx, ev, raw, models.DeliveryOutcomeRejected, err)
		return nil, err
	default:
		s.recordDelivery(ctx, ev, raw, models.DeliveryOutcomeFailed, err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.RememberApplied(ctx, ev.EventID, res.ResultingStatus)
	}
	return res, nil
}

// apply runs ledger reservation, resolution and the status change in one
// transaction. Any error rolls back the reservation with everything else.
func (s *Service) apply(ctx context.Context, ev *GatewayEvent) (*Result, error) {
	now := s.now()
	var res *Result

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		fresh, stored, err := tx.ReserveEvent(&models.IdempotencyRecord{
			EventID:   ev.EventID,
			EventType: string(ev.Type),
			AppliedAt: now,
		})
		if err != nil {
			return err
		}
		if !fresh {
			res = &Result{
				EventID:         ev.EventID,
				EventType:       ev.Type,
				TargetKind:      stored.TargetKind,
				TargetID:        stored.TargetID,
				ResultingStatus: stored.ResultingStatus,
				Duplicate:       true,
			}
			return nil
		}

		t, err := resolveTarget(tx, ev, now)
		if err != nil {
			return err
		}

		res, err = s.transition(tx, ev, t)
		if err != nil {
			return err
		}
		return tx.FinalizeEvent(ev.EventID, res.TargetKind, res.TargetID, res.ResultingStatus)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) transition(tx Repository, ev *GatewayEvent, t *target) (*Result, error) {
	res := &Result{EventID: ev.EventID, EventType: ev.Type, TargetKind: t.kind, TargetID: t.id()}

	switch t.kind {
	case models.TargetKindOrder:
		return res, applyOrderEvent(tx, ev, t.order, res)
	case models.TargetKindChargeCycle:
		return res, applyChargeEvent(tx, ev, t, res)
	default:
		return res, applySubscriptionEvent(tx, ev, t, res)
	}
}

func applyOrderEvent(tx Repository, ev *GatewayEvent, order *models.Order, res *Result) error {
	next, err := NextOrderStatus(order.Status, ev.Type)
	if err != nil {
		return err
	}
	res.PreviousStatus = order.Status
	res.ResultingStatus = next

	changed := next != order.Status
	if order.GatewayCustomerID == "" && ev.GatewayCustomerID != "" {
		order.GatewayCustomerID = ev.GatewayCustomerID
		changed = true
	}
	res.NoOp = next == order.Status
	if !changed {
		return nil
	}
	order.Status = next
	return tx.UpdateOrderStatus(order)
}

func applySubscriptionEvent(tx Repository, ev *GatewayEvent, t *target, res *Result) error {
	sub := t.subscription
	next, err := NextSubscriptionStatus(sub.Status, ev.Type)
	if err != nil {
		return err
	}
	res.PreviousStatus = sub.Status
	res.ResultingStatus = next

	changed := next != sub.Status
	if ev.Type == EventSubscriptionUpdated && next != models.SubscriptionStatusCanceled &&
		ev.NextDueDate != nil && ev.NextDueDate.After(sub.NextChargeAt) {
		sub.NextChargeAt = *ev.NextDueDate
		changed = true
	}
	res.NoOp = !changed && !t.createdSubscription
	if !changed {
		return nil
	}
	sub.Status = next
	return tx.SaveSubscription(sub)
}

// applyChargeEvent moves a charge cycle and keeps the owning subscription in
// step. The first payment of the latest cycle opens the next cycle.
func applyChargeEvent(tx Repository, ev *GatewayEvent, t *target, res *Result) error {
	cycle, sub := t.cycle, t.subscription
	prev := cycle.Status
	next, err := NextOrderStatus(prev, ev.Type)
	if err != nil {
		return err
	}
	res.PreviousStatus = prev
	res.ResultingStatus = next
	res.NoOp = next == prev && !t.linkedPayment

	if next == prev && !t.linkedPayment {
		return nil
	}
	cycle.Status = next
	if err := tx.SaveChargeCycle(cycle); err != nil {
		return err
	}
	if next == prev {
		return nil
	}

	latest, err := tx.LatestChargeCycleSequence(sub.ID)
	if err != nil {
		return err
	}
	if cycle.Sequence != latest {
		return nil
	}

	subStatus := SubscriptionStatusAfterCharge(sub.Status, next)
	subChanged := subStatus != sub.Status
	sub.Status = subStatus

	if IsPaidStatus(next) && !IsPaidStatus(prev) && sub.Status != models.SubscriptionStatusCanceled {
		if err := openNextCycle(tx, sub, cycle); err != nil {
			return err
		}
		subChanged = true
	}
	if !subChanged {
		return nil
	}
	return tx.SaveSubscription(sub)
}

// openNextCycle advances the subscription one billing period past the paid
// cycle and pre-creates the pending cycle the next charge will resolve to.
func openNextCycle(tx Repository, sub *models.Subscription, paid *models.ChargeCycle) error {
	frequency := sub.BillingFrequency
	if sub.PlanID != nil {
		plan, err := tx.FindPlanByID(*sub.PlanID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if plan != nil && normalizeFrequency(plan.BillingFrequency) != "" {
			frequency = plan.BillingFrequency
		}
	}

	base := paid.DueAt
	if base.IsZero() {
		base = sub.NextChargeAt
	}
	nextCharge, err := NextChargeDate(base, frequency)
	if err != nil {
		return err
	}

	sub.CycleStartAt = base
	sub.NextChargeAt = nextCharge
	if err := tx.CreateChargeCycle(&models.ChargeCycle{
		SubscriptionID: sub.ID,
		Sequence:       paid.Sequence + 1,
		AmountCents:    paid.AmountCents,
		DueAt:          nextCharge,
		Status:         models.PaymentStatusPending,
	}); err != nil {
		return err
	}

	fiberlog.Infof("[Billing] Subscription %d advanced to cycle %d, next charge %s",
		sub.ID, paid.Sequence+1, nextCharge.Format(time.RFC3339))
	return nil
}

// PruneLedger deletes ledger rows applied before the retention window.
func (s *Service) PruneLedger(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}
	var deleted int64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		n, err := tx.PruneEvents(s.now().Add(-retention))
		deleted = n
		return err
	})
	return deleted, err
}

func (s *Service) recordDelivery(ctx context.Context, ev *GatewayEvent, raw []byte, outcome string, cause error) {
	delivery := &models.WebhookDelivery{
		Provider:    ProviderAsaas,
		Outcome:     outcome,
		PayloadJSON: string(raw),
	}
	if ev != nil {
		delivery.EventID = ev.EventID
		delivery.EventType = string(ev.Type)
	}
	if cause != nil {
		delivery.Reason = cause.Error()
	}
	if err := s.repo.RecordDelivery(ctx, delivery); err != nil {
		fiberlog.Warnf("[Billing] Failed to record webhook delivery %s: %v", delivery.EventID, err)
	}
}
