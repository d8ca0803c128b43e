package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	config "github.com/jsquad/tutor_marketplace/configs"
	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

// LessonService tracks lesson completion and post-lesson notes. Completion is
// a lifecycle transition (and gates rating eligibility); note updates are
// plain field writes that must never change the status.
type LessonService struct {
	bookings bookingStore
	policy   config.BookingPolicy
	now      func() time.Time
}

func NewLessonService(bookings bookingStore, policy config.BookingPolicy) *LessonService {
	return &LessonService{
		bookings: bookings,
		policy:   policy,
		now:      time.Now,
	}
}

type LessonNotesInput struct {
	LessonNotes     string
	NextSteps       string
	StudentProgress string
}

// MarkCompleted moves a lesson to completed and records the tutor's notes in
// the same write. By default completion is accepted even before the lesson's
// scheduled end; ALLOW_EARLY_COMPLETION=false restores the strict check.
func (s *LessonService) MarkCompleted(ctx context.Context, tutorID, bookingID uuid.UUID, notes LessonNotesInput) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	actor := Actor{ID: tutorID, Role: models.ActorTutor}
	rule, err := ruleFor(booking.Status, models.BookingCompleted)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, booking, rule); err != nil {
		return nil, err
	}
	if !s.policy.AllowEarlyCompletion && s.now().Before(booking.EndTime) {
		return nil, fmt.Errorf("%w: lesson has not ended yet", ErrInvalidTransition)
	}

	updates := map[string]interface{}{
		"status":           models.BookingCompleted,
		"completed_at":     s.now(),
		"lesson_notes":     notes.LessonNotes,
		"next_steps":       notes.NextSteps,
		"student_progress": notes.StudentProgress,
	}

	updated, err := s.bookings.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, updates)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: booking changed, please retry", ErrInvalidTransition)
		}
		return nil, err
	}
	return updated, nil
}

// UpdateNotes revises the notes of an already completed lesson and stamps
// notes_updated_at. The conditional write keys on the completed status, so a
// lesson that is somehow no longer completed cannot be written to.
func (s *LessonService) UpdateNotes(ctx context.Context, tutorID, bookingID uuid.UUID, notes LessonNotesInput) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.TutorID != tutorID {
		return nil, ErrForbidden
	}
	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: notes can only be updated on completed lessons", ErrInvalidTransition)
	}

	updates := map[string]interface{}{
		"lesson_notes":     notes.LessonNotes,
		"next_steps":       notes.NextSteps,
		"student_progress": notes.StudentProgress,
		"notes_updated_at": s.now(),
	}

	updated, err := s.bookings.UpdateIfStatus(ctx, bookingID, models.BookingCompleted, updates)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: notes can only be updated on completed lessons", ErrInvalidTransition)
		}
		return nil, err
	}
	return updated, nil
}

// ListCompletable returns the tutor's queue of confirmed lessons whose window
// has ended and are waiting to be marked completed.
func (s *LessonService) ListCompletable(ctx context.Context, tutorID uuid.UUID, page, limit int) ([]models.Booking, int64, error) {
	return s.bookings.ListCompletable(ctx, tutorID, s.now(), page, limit)
}

func (s *LessonService) ListCompleted(ctx context.Context, tutorID uuid.UUID, page, limit int) ([]models.Booking, int64, error) {
	status := models.BookingCompleted
	return s.bookings.List(ctx, repository.BookingListFilter{
		TutorID:  &tutorID,
		Status:   &status,
		Page:     page,
		Limit:    limit,
		SortBy:   "scheduled_date",
		SortDesc: true,
	})
}
