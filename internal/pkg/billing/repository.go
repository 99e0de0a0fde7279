package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/FreshFox/app/models"
)

// Repository provides the DB operations used by the reconciliation engine.
// Methods whose name ends in ForUpdate take a row lock and are only
// meaningful inside Transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	ReserveEvent(rec *models.IdempotencyRecord) (bool, *models.IdempotencyRecord, error)
	FinalizeEvent(eventID, targetKind string, targetID uint, resultingStatus string) error
	PruneEvents(before time.Time) (int64, error)

	FindOrderByGatewayPaymentIDForUpdate(gatewayPaymentID string) (*models.Order, error)
	UpdateOrderStatus(order *models.Order) error

	CreateCustomerIfNotExists(customer *models.Customer) (*models.Customer, error)
	FindPlanBySlug(slug string) (*models.Plan, error)
	FindPlanByID(id uint) (*models.Plan, error)

	FindSubscriptionByGatewayIDForUpdate(gatewaySubscriptionID string) (*models.Subscription, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error

	FindChargeCycleByGatewayPaymentIDForUpdate(subscriptionID uint, gatewayPaymentID string) (*models.ChargeCycle, error)
	FindOpenChargeCycleForUpdate(subscriptionID uint) (*models.ChargeCycle, error)
	LatestChargeCycleSequence(subscriptionID uint) (int, error)
	CreateChargeCycle(cycle *models.ChargeCycle) error
	SaveChargeCycle(cycle *models.ChargeCycle) error

	RecordDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) forUpdate() *gorm.DB {
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *gormRepository) ReserveEvent(rec *models.IdempotencyRecord) (bool, *models.IdempotencyRecord, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(rec)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.IdempotencyRecord
	if err := r.db.Where("event_id = ?", rec.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) FinalizeEvent(eventID, targetKind string, targetID uint, resultingStatus string) error {
	updates := map[string]interface{}{
		"target_kind":      targetKind,
		"target_id":        targetID,
		"resulting_status": resultingStatus,
	}
	return r.db.Model(&models.IdempotencyRecord{}).Where("event_id = ?", eventID).Updates(updates).Error
}

func (r *gormRepository) PruneEvents(before time.Time) (int64, error) {
	tx := r.db.Where("applied_at < ?", before).Delete(&models.IdempotencyRecord{})
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) FindOrderByGatewayPaymentIDForUpdate(gatewayPaymentID string) (*models.Order, error) {
	var order models.Order
	err := r.forUpdate().Where("gateway_payment_id = ?", gatewayPaymentID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) UpdateOrderStatus(order *models.Order) error {
	updates := map[string]interface{}{
		"status":              order.Status,
		"gateway_customer_id": order.GatewayCustomerID,
	}
	return r.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
}

func (r *gormRepository) CreateCustomerIfNotExists(customer *models.Customer) (*models.Customer, error) {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_customer_id"}},
		DoNothing: true,
	}).Create(customer).Error; err != nil {
		return nil, err
	}

	var stored models.Customer
	if err := r.forUpdate().Where("gateway_customer_id = ?", customer.GatewayCustomerID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) FindPlanBySlug(slug string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) FindPlanByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) FindSubscriptionByGatewayIDForUpdate(gatewaySubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.forUpdate().Where("gateway_subscription_id = ?", gatewaySubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, *models.Subscription, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_subscription_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Subscription
	if err := r.forUpdate().Where("gateway_subscription_id = ?", *sub.GatewaySubscriptionID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	updates := map[string]interface{}{
		"status":         sub.Status,
		"cycle_start_at": sub.CycleStartAt,
		"next_charge_at": sub.NextChargeAt,
	}
	return r.db.Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error
}

func (r *gormRepository) FindChargeCycleByGatewayPaymentIDForUpdate(subscriptionID uint, gatewayPaymentID string) (*models.ChargeCycle, error) {
	var cycle models.ChargeCycle
	err := r.forUpdate().
		Where("subscription_id = ? AND gateway_payment_id = ?", subscriptionID, gatewayPaymentID).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *gormRepository) FindOpenChargeCycleForUpdate(subscriptionID uint) (*models.ChargeCycle, error) {
	var cycle models.ChargeCycle
	err := r.forUpdate().
		Where("subscription_id = ? AND gateway_payment_id IS NULL AND status = ?", subscriptionID, models.PaymentStatusPending).
		Order("sequence desc").
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *gormRepository) LatestChargeCycleSequence(subscriptionID uint) (int, error) {
	var latest int
	err := r.db.Model(&models.ChargeCycle{}).
		Where("subscription_id = ?", subscriptionID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&latest).Error
	return latest, err
}

func (r *gormRepository) CreateChargeCycle(cycle *models.ChargeCycle) error {
	return r.db.Create(cycle).Error
}

func (r *gormRepository) SaveChargeCycle(cycle *models.ChargeCycle) error {
	updates := map[string]interface{}{
		"status":             cycle.Status,
		"gateway_payment_id": cycle.GatewayPaymentID,
		"amount_cents":       cycle.AmountCents,
	}
	return r.db.Model(&models.ChargeCycle{}).Where("id = ?", cycle.ID).Updates(updates).Error
}

func (r *gormRepository) RecordDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}
