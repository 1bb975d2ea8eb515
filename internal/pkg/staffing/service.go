package staffing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ShiftDeskApp/ShiftDesk/app/models"
)

var (
	// ErrUnauthenticated means no caller identity was supplied.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller tried to clean up another user's data.
	ErrForbidden = errors.New("cannot clean up another user's data")
	// ErrMissingArgument means userId or storeId was empty.
	ErrMissingArgument = errors.New("userId and storeId are required")
	// ErrStaffNotFound means no active staff record exists for the pair.
	ErrStaffNotFound = errors.New("staff record not found")
)

// deleteConcurrency bounds the deletion fan-out within one workflow run.
const deleteConcurrency = 8

// CleanupResult reports what the departure workflow removed.
type CleanupResult struct {
	DeletedShifts   int `json:"deletedShifts"`
	DeletedRequests int `json:"deletedRequests"`
}

// Service runs the cascading cleanup when a staff member leaves a store:
// future-dated shifts and all shift-change requests are deleted, then the
// staff record is deactivated. The workflow is best-effort across the
// independent collections and safe to retry as a whole.
type Service struct {
	repo Repository
	log  zerolog.Logger

	// now is the clock used for the today-or-future shift cut; swapped in tests.
	now func() time.Time
}

// NewService creates a departure-cleanup service from an injected repository.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// NewServiceFromDB creates a departure-cleanup service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, log zerolog.Logger) *Service {
	return NewService(NewRepository(db), log)
}

// LeaveStore removes the future schedule of the staff member identified by
// (targetUserID, storeID) and deactivates the staff record. Callers may only
// clean up their own membership. Shifts dated before today are retained for
// historical reporting; shift-change requests are removed regardless of date
// or status.
//
// Deletions inside each collection run concurrently; individual failures are
// aggregated into a single error instead of aborting the remaining
// deletions, so a partial failure leaves independent collections as cleaned
// as possible and the whole workflow can simply be retried.
func (s *Service) LeaveStore(ctx context.Context, requestingUserID, targetUserID, storeID string) (*CleanupResult, error) {
	if requestingUserID == "" {
		return nil, ErrUnauthenticated
	}
	if requestingUserID != targetUserID {
		return nil, ErrForbidden
	}
	if targetUserID == "" || storeID == "" {
		return nil, ErrMissingArgument
	}

	staff, err := s.repo.FindActiveStaff(targetUserID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("lookup staff: %w", err)
	}

	today := s.now().Format(models.ShiftDateLayout)

	shifts, err := s.repo.ListShiftsByStaff(staff.ID)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	var futureShiftIDs []string
	for _, shift := range shifts {
		if shift.Date >= today {
			futureShiftIDs = append(futureShiftIDs, shift.ID)
		}
	}

	requests, err := s.repo.ListShiftRequestsByStaff(staff.ID)
	if err != nil {
		return nil, fmt.Errorf("list shift requests: %w", err)
	}

	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []error
	)
	g.SetLimit(deleteConcurrency)

	collect := func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	for _, id := range futureShiftIDs {
		id := id
		g.Go(func() error {
			if err := s.repo.DeleteShift(id); err != nil {
				collect(fmt.Errorf("delete shift %s: %w", id, err))
			}
			return nil
		})
	}
	for _, req := range requests {
		req := req
		g.Go(func() error {
			if err := s.repo.DeleteShiftRequest(req.ID); err != nil {
				collect(fmt.Errorf("delete shift request %s: %w", req.ID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		// The staff record stays active so a retry finds it again.
		return nil, fmt.Errorf("cleanup incomplete: %w", errors.Join(failures...))
	}

	if err := s.repo.DeactivateStaff(staff.ID); err != nil {
		return nil, fmt.Errorf("deactivate staff: %w", err)
	}

	s.log.Info().
		Str("user_id", targetUserID).
		Str("store_id", storeID).
		Str("staff_id", staff.ID).
		Int("deleted_shifts", len(futureShiftIDs)).
		Int("deleted_requests", len(requests)).
		Msg("leave store cleanup completed")

	return &CleanupResult{
		DeletedShifts:   len(futureShiftIDs),
		DeletedRequests: len(requests),
	}, nil
}
