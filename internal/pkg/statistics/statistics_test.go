package statistics

import (
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestActiveStaffQueryFiltersInactive(t *testing.T) {
	var n int64
	tx := activeStaffQuery(dryRunDB(t), "S1").Count(&n)
	sql := tx.Statement.SQL.String()
	if !strings.Contains(sql, "is_active") {
		t.Fatalf("active staff count must filter on is_active, got %q", sql)
	}
}

func TestUpcomingShiftsQueryCountsActiveStaffOnly(t *testing.T) {
	var n int64
	tx := upcomingShiftsQuery(dryRunDB(t), "S1", "2026-03-15").Count(&n)
	sql := tx.Statement.SQL.String()
	if !strings.Contains(sql, "is_active") {
		t.Fatalf("upcoming shift count must scope to active staff, got %q", sql)
	}
	if !strings.Contains(sql, "date >=") {
		t.Fatalf("upcoming shift count must be date-bounded, got %q", sql)
	}

	hasActiveBind := false
	for _, v := range tx.Statement.Vars {
		if b, ok := v.(bool); ok && b {
			hasActiveBind = true
		}
	}
	if !hasActiveBind {
		t.Fatalf("expected is_active=true bind variable, vars=%v", tx.Statement.Vars)
	}
}
