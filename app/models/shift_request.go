package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ShiftRequestTypeSwap    = "swap"
	ShiftRequestTypeDayOff  = "day_off"
	ShiftRequestTypeGeneral = "general"
)

const (
	ShiftRequestStatusPending  = "pending"
	ShiftRequestStatusApproved = "approved"
	ShiftRequestStatusRejected = "rejected"
)

// ShiftRequest is a pending or resolved change request a staff member filed
// against the schedule. Requests have no retention value once the staff
// member departs and are removed wholesale by the cleanup workflow.
type ShiftRequest struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	StaffID    string    `gorm:"type:char(36);not null;index" json:"staff_id"`
	Type       string    `gorm:"type:varchar(20);not null;default:'general'" json:"type"`
	Status     string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TargetDate string    `gorm:"type:char(10);not null;default:''" json:"target_date"`
	Reason     string    `gorm:"type:varchar(255);not null;default:''" json:"reason"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *ShiftRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
