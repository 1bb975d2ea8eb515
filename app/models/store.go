package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
)

// Store is a tenant in ShiftDesk. The plan is derived exclusively from the
// most recent accepted Stripe event for the store, or "free" if there is
// none / the subscription was cancelled.
type Store struct {
	ID                   string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name                 string    `gorm:"type:varchar(191);not null" json:"name"`
	Plan                 string    `gorm:"type:varchar(20);not null;default:'free';index" json:"plan"`
	StripeCustomerID     *string   `gorm:"type:varchar(191);index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string   `gorm:"type:varchar(191)" json:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// FindStoreByID looks up a store by primary key.
func FindStoreByID(db *gorm.DB, id string) (*Store, error) {
	var store Store
	if err := db.Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindStoreByStripeCustomerID resolves the store linked to a Stripe customer.
func FindStoreByStripeCustomerID(db *gorm.DB, customerID string) (*Store, error) {
	var store Store
	if err := db.Where("stripe_customer_id = ?", customerID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
