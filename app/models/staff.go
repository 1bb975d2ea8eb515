package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff links an application user to a store. Departed staff stay in the
// table with IsActive=false so past shifts keep a valid owner.
type Staff struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_staffs_user_store,priority:1" json:"user_id"`
	StoreID     string    `gorm:"type:char(36);not null;index:idx_staffs_user_store,priority:2" json:"store_id"`
	DisplayName string    `gorm:"type:varchar(100);not null;default:''" json:"display_name"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
