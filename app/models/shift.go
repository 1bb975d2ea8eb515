package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShiftDateLayout is the calendar-date format stored on shifts and used for
// the today-or-future comparison during departure cleanup. Dates compare
// correctly as plain strings in this layout.
const ShiftDateLayout = "2006-01-02"

// Shift is one scheduled work slot for a staff member.
type Shift struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	StaffID   string    `gorm:"type:char(36);not null;index" json:"staff_id"`
	Date      string    `gorm:"type:char(10);not null;index" json:"date"`
	StartTime string    `gorm:"type:char(5);not null;default:''" json:"start_time"`
	EndTime   string    `gorm:"type:char(5);not null;default:''" json:"end_time"`
	Note      string    `gorm:"type:varchar(255);not null;default:''" json:"note"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Shift) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
