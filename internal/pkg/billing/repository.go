package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
)

// Repository provides the store lookups and mutations the reconciler needs.
// All mutations are plain "set to value" writes so replayed events converge
// on the same final state.
type Repository interface {
	GetStoreByID(id string) (*models.Store, error)
	GetStoreByStripeCustomerID(customerID string) (*models.Store, error)
	// ActivateStoreSubscription links a store to its Stripe identity and sets the plan.
	ActivateStoreSubscription(storeID, plan, customerID, subscriptionID string) error
	// UpdateStorePlan sets the plan only, leaving the Stripe refs untouched.
	UpdateStorePlan(storeID, plan string) error
	// CancelStoreSubscription reverts the store to free and clears the
	// subscription ref. The customer ref is retained so the store can
	// re-subscribe under the same billing identity.
	CancelStoreSubscription(storeID string) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetStoreByID(id string) (*models.Store, error) {
	return models.FindStoreByID(r.db, id)
}

func (r *gormRepository) GetStoreByStripeCustomerID(customerID string) (*models.Store, error) {
	return models.FindStoreByStripeCustomerID(r.db, customerID)
}

func (r *gormRepository) ActivateStoreSubscription(storeID, plan, customerID, subscriptionID string) error {
	return r.updateStore(storeID, map[string]interface{}{
		"plan":                   plan,
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": subscriptionID,
	})
}

func (r *gormRepository) UpdateStorePlan(storeID, plan string) error {
	return r.updateStore(storeID, map[string]interface{}{
		"plan": plan,
	})
}

func (r *gormRepository) CancelStoreSubscription(storeID string) error {
	return r.updateStore(storeID, map[string]interface{}{
		"plan":                   models.PlanFree,
		"stripe_subscription_id": nil,
	})
}

func (r *gormRepository) updateStore(storeID string, updates map[string]interface{}) error {
	tx := r.db.Model(&models.Store{}).Where("id = ?", storeID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// Distinguish a vanished store from an idempotent re-apply.
		var count int64
		if err := r.db.Model(&models.Store{}).Where("id = ?", storeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
