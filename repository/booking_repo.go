package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetDetailed loads a booking with its student and tutor for response shaping.
func (r *BookingRepository) GetDetailed(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Tutor").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// hasConflict reports whether any pending or confirmed booking for the tutor
// overlaps the half-open window [start, end). A lesson ending exactly when
// another starts is not a conflict. Only called with the tutor's schedule
// lock held, inside CreateScheduled and RescheduleIfCurrent.
func hasConflict(tx *gorm.DB, tutorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := tx.Model(&models.Booking{}).
		Where("tutor_id = ?", tutorID).
		Where("status IN ?", []models.BookingStatus{models.BookingPending, models.BookingConfirmed}).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// lockTutorSchedule serializes schedule writes per tutor for the duration of
// the surrounding transaction, so a conflict check and the write that follows
// it cannot interleave with another create or reschedule for the same tutor.
func lockTutorSchedule(tx *gorm.DB, tutorID uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?::text))", tutorID.String()).Error
}

// CreateScheduled inserts a new booking after verifying the tutor's schedule
// is free, holding the tutor's schedule lock across check and insert.
func (r *BookingRepository) CreateScheduled(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTutorSchedule(tx, booking.TutorID); err != nil {
			return err
		}

		conflict, err := hasConflict(tx, booking.TutorID, booking.StartTime, booking.EndTime, nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrTimeConflict
		}

		return tx.Create(booking).Error
	})
}

// UpdateStatusIfCurrent applies updates only when the booking still has the
// status the caller observed. Zero matched rows means the read was stale.
func (r *BookingRepository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current models.BookingStatus, updates map[string]interface{}) (*models.Booking, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, current).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrStaleStatus
	}
	return r.GetByID(ctx, id)
}

// UpdateIfStatus applies field updates only while the booking holds the given
// status. Used for post-completion notes, which must never revive a booking.
func (r *BookingRepository) UpdateIfStatus(ctx context.Context, id uuid.UUID, required models.BookingStatus, updates map[string]interface{}) (*models.Booking, error) {
	return r.UpdateStatusIfCurrent(ctx, id, required, updates)
}

// RescheduleIfCurrent moves a booking to a new window: it takes the tutor's
// schedule lock, re-checks conflicts against the new window excluding the
// booking itself, and then swaps the schedule only if the status is unchanged.
func (r *BookingRepository) RescheduleIfCurrent(ctx context.Context, booking *models.Booking, current models.BookingStatus, newStart, newEnd time.Time, updates map[string]interface{}) (*models.Booking, error) {
	var updated *models.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTutorSchedule(tx, booking.TutorID); err != nil {
			return err
		}

		conflict, err := hasConflict(tx, booking.TutorID, newStart, newEnd, &booking.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrTimeConflict
		}

		result := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, current).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		var reloaded models.Booking
		if err := tx.First(&reloaded, "id = ?", booking.ID).Error; err != nil {
			return err
		}
		updated = &reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Updates applies unconditional field updates (meeting details and the like).
func (r *BookingRepository) Updates(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Booking, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

type BookingListFilter struct {
	StudentID *uuid.UUID
	TutorID   *uuid.UUID
	Status    *models.BookingStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortBy    string
	SortDesc  bool
}

var bookingSortColumns = map[string]string{
	"scheduled_date": "scheduled_date",
	"created_at":     "created_at",
	"total_amount":   "total_amount",
	"status":         "status",
}

func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.TutorID != nil {
		query = query.Where("tutor_id = ?", *filter.TutorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("scheduled_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("scheduled_date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := bookingSortColumns[filter.SortBy]
	if !ok {
		column = "scheduled_date"
	}
	direction := "asc"
	if filter.SortDesc {
		direction = "desc"
	}

	var bookings []models.Booking
	err := query.
		Preload("Student").
		Preload("Tutor").
		Order(column + " " + direction).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListCompletable returns confirmed bookings whose lesson window has ended,
// the tutor's queue of lessons awaiting a completion action.
func (r *BookingRepository) ListCompletable(ctx context.Context, tutorID uuid.UUID, now time.Time, page, limit int) ([]models.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("tutor_id = ?", tutorID).
		Where("status = ?", models.BookingConfirmed).
		Where("end_time <= ?", now)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := query.
		Preload("Student").
		Order("end_time asc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListUpcoming returns confirmed bookings starting inside [from, to), used by
// the reminder job and the student dashboard.
func (r *BookingRepository) ListUpcoming(ctx context.Context, from, to time.Time, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Tutor").
		Where("status = ?", models.BookingConfirmed).
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to).
		Order("scheduled_date asc").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// BookingStats aggregates an actor's bookings by lifecycle state.
type BookingStats struct {
	Total       int64   `json:"total_bookings"`
	Pending     int64   `json:"pending_bookings"`
	Confirmed   int64   `json:"confirmed_bookings"`
	Completed   int64   `json:"completed_bookings"`
	Cancelled   int64   `json:"cancelled_bookings"`
	TotalAmount float64 `json:"total_amount"`
}

// StatsFor computes booking counts per status plus the summed amount of
// completed lessons for one side of the marketplace.
func (r *BookingRepository) StatsFor(ctx context.Context, filter BookingListFilter) (*BookingStats, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Booking{})
		if filter.StudentID != nil {
			query = query.Where("student_id = ?", *filter.StudentID)
		}
		if filter.TutorID != nil {
			query = query.Where("tutor_id = ?", *filter.TutorID)
		}
		if filter.StartDate != nil {
			query = query.Where("scheduled_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			query = query.Where("scheduled_date <= ?", *filter.EndDate)
		}
		return query
	}

	var stats BookingStats
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	counts := map[models.BookingStatus]*int64{
		models.BookingPending:   &stats.Pending,
		models.BookingConfirmed: &stats.Confirmed,
		models.BookingCompleted: &stats.Completed,
		models.BookingCancelled: &stats.Cancelled,
	}
	for status, dest := range counts {
		if err := base().Where("status = ?", status).Count(dest).Error; err != nil {
			return nil, err
		}
	}

	err := base().
		Where("status = ?", models.BookingCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalAmount).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// FavoriteTutorIDs returns the tutors a student books most, ordered by count.
func (r *BookingRepository) FavoriteTutorIDs(ctx context.Context, studentID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("student_id = ?", studentID).
		Where("status IN ?", []models.BookingStatus{models.BookingConfirmed, models.BookingCompleted}).
		Group("tutor_id").
		Order("COUNT(*) DESC").
		Limit(limit).
		Pluck("tutor_id", &ids).Error
	return ids, err
}
