package statistics

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/cache"
)

const (
	cacheKeyActiveStaff    = "statistics:store:%s:active_staff"
	cacheKeyUpcomingShifts = "statistics:store:%s:upcoming_shifts"
	cacheExpiration        = 5 * time.Minute
)

// StoreStats holds the headline numbers for a store's dashboard.
type StoreStats struct {
	ActiveStaff    int64 `json:"activeStaff"`
	UpcomingShifts int64 `json:"upcomingShifts"`
}

// GetStoreStats resolves a store's staffing numbers, cache first with DB
// fallback. Cache errors fall through to the count queries.
func GetStoreStats(db *gorm.DB, storeID string) (StoreStats, error) {
	stats := StoreStats{}

	staffKey := fmt.Sprintf(cacheKeyActiveStaff, storeID)
	shiftKey := fmt.Sprintf(cacheKeyUpcomingShifts, storeID)

	if staff, ok := cachedCount(staffKey); ok {
		if shifts, ok := cachedCount(shiftKey); ok {
			stats.ActiveStaff = staff
			stats.UpcomingShifts = shifts
			return stats, nil
		}
	}

	if err := activeStaffQuery(db, storeID).Count(&stats.ActiveStaff).Error; err != nil {
		return stats, err
	}

	today := time.Now().Format(models.ShiftDateLayout)
	if err := upcomingShiftsQuery(db, storeID, today).Count(&stats.UpcomingShifts).Error; err != nil {
		return stats, err
	}

	_ = cache.Set(staffKey, strconv.FormatInt(stats.ActiveStaff, 10), cacheExpiration)
	_ = cache.Set(shiftKey, strconv.FormatInt(stats.UpcomingShifts, 10), cacheExpiration)
	return stats, nil
}

func activeStaffQuery(db *gorm.DB, storeID string) *gorm.DB {
	return db.Model(&models.Staff{}).
		Where("store_id = ? AND is_active = ?", storeID, true)
}

// upcomingShiftsQuery selects today-or-future shifts belonging to the
// store's active staff. Deactivated staff keep their past shifts but must
// not count toward upcoming load.
func upcomingShiftsQuery(db *gorm.DB, storeID, today string) *gorm.DB {
	staffIDs := db.Model(&models.Staff{}).Select("id").
		Where("store_id = ? AND is_active = ?", storeID, true)
	return db.Model(&models.Shift{}).
		Where("date >= ? AND staff_id IN (?)", today, staffIDs)
}

// Invalidate drops a store's cached numbers, for callers that just changed
// staffing data and want the next read to be fresh.
func Invalidate(storeID string) {
	_ = cache.Delete(fmt.Sprintf(cacheKeyActiveStaff, storeID))
	_ = cache.Delete(fmt.Sprintf(cacheKeyUpcomingShifts, storeID))
}

func cachedCount(key string) (int64, bool) {
	raw, err := cache.Get(key)
	if err != nil || raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
