package staffing

import (
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
)

// Repository provides the staff, shift and shift-request operations the
// departure workflow needs.
type Repository interface {
	// FindActiveStaff resolves the single active staff record for a
	// (user, store) pair.
	FindActiveStaff(userID, storeID string) (*models.Staff, error)
	ListShiftsByStaff(staffID string) ([]models.Shift, error)
	DeleteShift(id string) error
	ListShiftRequestsByStaff(staffID string) ([]models.ShiftRequest, error)
	DeleteShiftRequest(id string) error
	// DeactivateStaff sets is_active=false. The record itself is never
	// deleted so past shifts keep a valid owner.
	DeactivateStaff(staffID string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a staffing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindActiveStaff(userID, storeID string) (*models.Staff, error) {
	var staff models.Staff
	err := r.db.
		Where("user_id = ? AND store_id = ? AND is_active = ?", userID, storeID, true).
		First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *gormRepository) ListShiftsByStaff(staffID string) ([]models.Shift, error) {
	var shifts []models.Shift
	err := r.db.Where("staff_id = ?", staffID).Find(&shifts).Error
	return shifts, err
}

func (r *gormRepository) DeleteShift(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Shift{}).Error
}

func (r *gormRepository) ListShiftRequestsByStaff(staffID string) ([]models.ShiftRequest, error) {
	var requests []models.ShiftRequest
	err := r.db.Where("staff_id = ?", staffID).Find(&requests).Error
	return requests, err
}

func (r *gormRepository) DeleteShiftRequest(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.ShiftRequest{}).Error
}

func (r *gormRepository) DeactivateStaff(staffID string) error {
	return r.db.Model(&models.Staff{}).Where("id = ?", staffID).
		Update("is_active", false).Error
}
