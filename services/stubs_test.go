package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

// memBookingStore reproduces the repository's concurrency contract in memory:
// half-open overlap detection over active bookings, and conditional writes
// that fail with ErrStaleStatus when the observed status no longer matches.
type memBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func newMemBookingStore(bookings ...*models.Booking) *memBookingStore {
	store := &memBookingStore{bookings: make(map[uuid.UUID]*models.Booking)}
	for _, b := range bookings {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		copied := *b
		store.bookings[b.ID] = &copied
	}
	return store
}

func (s *memBookingStore) get(id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *memBookingStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *memBookingStore) GetDetailed(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (s *memBookingStore) hasConflict(tutorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, existing := range s.bookings {
		if existing.TutorID != tutorID || !existing.Status.Active() {
			continue
		}
		if excludeID != nil && existing.ID == *excludeID {
			continue
		}
		if overlaps(existing.StartTime, existing.EndTime, start, end) {
			return true
		}
	}
	return false
}

func (s *memBookingStore) CreateScheduled(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasConflict(booking.TutorID, booking.StartTime, booking.EndTime, nil) {
		return repository.ErrTimeConflict
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func applyUpdates(booking *models.Booking, updates map[string]interface{}) {
	timePtr := func(v interface{}) *time.Time {
		t := v.(time.Time)
		return &t
	}
	strPtr := func(v interface{}) *string {
		s := v.(string)
		return &s
	}
	for column, value := range updates {
		switch column {
		case "status":
			booking.Status = value.(models.BookingStatus)
		case "cancelled_by":
			booking.CancelledBy = strPtr(value)
		case "cancelled_at":
			booking.CancelledAt = timePtr(value)
		case "cancellation_reason":
			booking.CancellationReason = strPtr(value)
		case "completed_at":
			booking.CompletedAt = timePtr(value)
		case "lesson_notes":
			booking.LessonNotes = value.(string)
		case "next_steps":
			booking.NextSteps = value.(string)
		case "student_progress":
			booking.StudentProgress = value.(string)
		case "notes_updated_at":
			booking.NotesUpdatedAt = timePtr(value)
		case "tutor_feedback":
			booking.TutorFeedback = strPtr(value)
		case "scheduled_date":
			booking.ScheduledDate = value.(time.Time)
		case "start_time":
			booking.StartTime = value.(time.Time)
		case "end_time":
			booking.EndTime = value.(time.Time)
		case "original_scheduled_date":
			booking.OriginalScheduledDate = timePtr(value)
		case "rescheduled_by":
			booking.RescheduledBy = strPtr(value)
		case "reschedule_reason":
			booking.RescheduleReason = strPtr(value)
		case "meeting_link":
			booking.MeetingLink = strPtr(value)
		case "location":
			booking.Location = strPtr(value)
		}
	}
	booking.TotalAmount = booking.Duration * booking.HourlyRate
}

func (s *memBookingStore) UpdateStatusIfCurrent(_ context.Context, id uuid.UUID, current models.BookingStatus, updates map[string]interface{}) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok || booking.Status != current {
		return nil, repository.ErrStaleStatus
	}
	applyUpdates(booking, updates)
	copied := *booking
	return &copied, nil
}

func (s *memBookingStore) UpdateIfStatus(ctx context.Context, id uuid.UUID, required models.BookingStatus, updates map[string]interface{}) (*models.Booking, error) {
	return s.UpdateStatusIfCurrent(ctx, id, required, updates)
}

func (s *memBookingStore) RescheduleIfCurrent(_ context.Context, booking *models.Booking, current models.BookingStatus, newStart, newEnd time.Time, updates map[string]interface{}) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasConflict(booking.TutorID, newStart, newEnd, &booking.ID) {
		return nil, repository.ErrTimeConflict
	}
	stored, ok := s.bookings[booking.ID]
	if !ok || stored.Status != current {
		return nil, repository.ErrStaleStatus
	}
	applyUpdates(stored, updates)
	copied := *stored
	return &copied, nil
}

func (s *memBookingStore) Updates(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	applyUpdates(booking, updates)
	copied := *booking
	return &copied, nil
}

func (s *memBookingStore) List(_ context.Context, filter repository.BookingListFilter) ([]models.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Booking
	for _, booking := range s.bookings {
		if filter.StudentID != nil && booking.StudentID != *filter.StudentID {
			continue
		}
		if filter.TutorID != nil && booking.TutorID != *filter.TutorID {
			continue
		}
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		result = append(result, *booking)
	}
	sort.Slice(result, func(i, j int) bool {
		if filter.SortDesc {
			return result[i].ScheduledDate.After(result[j].ScheduledDate)
		}
		return result[i].ScheduledDate.Before(result[j].ScheduledDate)
	})
	return result, int64(len(result)), nil
}

func (s *memBookingStore) ListCompletable(_ context.Context, tutorID uuid.UUID, now time.Time, _, _ int) ([]models.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Booking
	for _, booking := range s.bookings {
		if booking.TutorID == tutorID && booking.CanBeCompleted(now) {
			result = append(result, *booking)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EndTime.Before(result[j].EndTime)
	})
	return result, int64(len(result)), nil
}

func (s *memBookingStore) StatsFor(_ context.Context, filter repository.BookingListFilter) (*repository.BookingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &repository.BookingStats{}
	for _, booking := range s.bookings {
		if filter.StudentID != nil && booking.StudentID != *filter.StudentID {
			continue
		}
		if filter.TutorID != nil && booking.TutorID != *filter.TutorID {
			continue
		}
		stats.Total++
		switch booking.Status {
		case models.BookingPending:
			stats.Pending++
		case models.BookingConfirmed:
			stats.Confirmed++
		case models.BookingCompleted:
			stats.Completed++
			stats.TotalAmount += booking.TotalAmount
		case models.BookingCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type stubTutorReader struct {
	tutors map[uuid.UUID]*models.Tutor
}

func newStubTutorReader(tutors ...*models.Tutor) *stubTutorReader {
	reader := &stubTutorReader{tutors: make(map[uuid.UUID]*models.Tutor)}
	for _, t := range tutors {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		reader.tutors[t.ID] = t
	}
	return reader
}

func (r *stubTutorReader) GetByID(_ context.Context, id uuid.UUID) (*models.Tutor, error) {
	tutor, ok := r.tutors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *tutor
	return &copied, nil
}

// memRatingStore enforces the one-rating-per-booking rule the way the
// database does: the insert itself fails on a duplicate key.
type memRatingStore struct {
	mu      sync.Mutex
	ratings []models.Rating
}

func (s *memRatingStore) CreateAndRecalculate(_ context.Context, rating *models.Rating) (*repository.TutorAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.StudentID == rating.StudentID &&
			existing.TutorID == rating.TutorID &&
			existing.BookingID == rating.BookingID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	rating.ID = uuid.New()
	s.ratings = append(s.ratings, *rating)

	var sum int
	var count int64
	for _, existing := range s.ratings {
		if existing.TutorID == rating.TutorID {
			sum += existing.Rating
			count++
		}
	}
	return &repository.TutorAggregate{
		AverageRating: roundToOneDecimal(float64(sum) / float64(count)),
		TotalRatings:  count,
	}, nil
}

func (s *memRatingStore) ListByStudent(_ context.Context, studentID uuid.UUID, _, _ int) ([]models.Rating, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Rating
	for _, rating := range s.ratings {
		if rating.StudentID == studentID {
			result = append(result, rating)
		}
	}
	return result, int64(len(result)), nil
}

func (s *memRatingStore) ListByTutor(_ context.Context, tutorID uuid.UUID, _, _ int) ([]models.Rating, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Rating
	for _, rating := range s.ratings {
		if rating.TutorID == tutorID {
			result = append(result, rating)
		}
	}
	return result, int64(len(result)), nil
}
