package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	config "github.com/jsquad/tutor_marketplace/configs"
	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

// MinLessonDuration is the shortest bookable lesson, in hours.
const MinLessonDuration = 0.5

type bookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetDetailed(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	CreateScheduled(ctx context.Context, booking *models.Booking) error
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, current models.BookingStatus, updates map[string]interface{}) (*models.Booking, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, required models.BookingStatus, updates map[string]interface{}) (*models.Booking, error)
	RescheduleIfCurrent(ctx context.Context, booking *models.Booking, current models.BookingStatus, newStart, newEnd time.Time, updates map[string]interface{}) (*models.Booking, error)
	Updates(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Booking, error)
	List(ctx context.Context, filter repository.BookingListFilter) ([]models.Booking, int64, error)
	ListCompletable(ctx context.Context, tutorID uuid.UUID, now time.Time, page, limit int) ([]models.Booking, int64, error)
	StatsFor(ctx context.Context, filter repository.BookingListFilter) (*repository.BookingStats, error)
}

type tutorReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tutor, error)
}

// BookingService owns the booking lifecycle: creation, confirmation,
// cancellation, rescheduling and the auxiliary booking mutations. Every
// status write goes through a conditional update keyed on the status the
// service observed, so two racing transitions cannot both win.
type BookingService struct {
	bookings bookingStore
	tutors   tutorReader
	policy   config.BookingPolicy
	now      func() time.Time
}

func NewBookingService(bookings bookingStore, tutors tutorReader, policy config.BookingPolicy) *BookingService {
	return &BookingService{
		bookings: bookings,
		tutors:   tutors,
		policy:   policy,
		now:      time.Now,
	}
}

type CreateBookingInput struct {
	TutorID           uuid.UUID
	Subject           string
	ScheduledDate     time.Time
	Duration          float64
	Notes             *string
	MeetingPreference string
}

func (s *BookingService) Create(ctx context.Context, studentID uuid.UUID, input CreateBookingInput) (*models.Booking, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if input.Duration < MinLessonDuration {
		return nil, fmt.Errorf("%w: duration must be at least %.1f hours", ErrValidation, MinLessonDuration)
	}
	if !input.ScheduledDate.After(s.now()) {
		return nil, fmt.Errorf("%w: scheduled date must be in the future", ErrValidation)
	}

	tutor, err := s.tutors.GetByID(ctx, input.TutorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTutorNotFound
		}
		return nil, err
	}
	if !tutor.IsActive {
		return nil, ErrTutorNotFound
	}
	if !tutor.Teaches(input.Subject) {
		return nil, ErrSubjectNotTaught
	}

	meetingPreference := input.MeetingPreference
	if meetingPreference == "" {
		meetingPreference = "zoom"
	}

	booking := &models.Booking{
		StudentID:         studentID,
		TutorID:           tutor.ID,
		Subject:           input.Subject,
		ScheduledDate:     input.ScheduledDate,
		Duration:          input.Duration,
		HourlyRate:        tutor.HourlyRate,
		Notes:             input.Notes,
		MeetingPreference: meetingPreference,
		Status:            models.BookingPending,
		PaymentStatus:     models.PaymentPending,
	}
	booking.Recalculate()

	if err := s.bookings.CreateScheduled(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrTimeConflict) {
			return nil, ErrSchedulingConflict
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetDetailed(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

type ListBookingsInput struct {
	Status    *models.BookingStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortBy    string
	SortDesc  bool
}

// ListFor returns the actor's own bookings, newest lesson first by default.
func (s *BookingService) ListFor(ctx context.Context, actor Actor, input ListBookingsInput) ([]models.Booking, int64, error) {
	filter := repository.BookingListFilter{
		Status:    input.Status,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Page:      input.Page,
		Limit:     input.Limit,
		SortBy:    input.SortBy,
		SortDesc:  input.SortDesc,
	}
	switch actor.Role {
	case models.ActorStudent:
		filter.StudentID = &actor.ID
	case models.ActorTutor:
		filter.TutorID = &actor.ID
	default:
		return nil, 0, ErrForbidden
	}
	return s.bookings.List(ctx, filter)
}

// UpdateStatus drives one edge of the state machine. The reason is recorded
// only for cancellations. Rescheduling is not reachable here: it moves the
// lesson window and needs a conflict check, so it has its own entry point.
func (s *BookingService) UpdateStatus(ctx context.Context, actor Actor, bookingID uuid.UUID, target models.BookingStatus, reason *string) (*models.Booking, error) {
	if target == models.BookingRescheduled {
		return nil, fmt.Errorf("%w: use reschedule to move a booking", ErrInvalidTransition)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	rule, err := ruleFor(booking.Status, target)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, booking, rule); err != nil {
		return nil, err
	}
	if rule.noticeBound {
		if err := checkNotice(s.policy, actor, booking, target, s.now()); err != nil {
			return nil, err
		}
	}
	if target == models.BookingCompleted &&
		!s.policy.AllowEarlyCompletion && s.now().Before(booking.EndTime) {
		return nil, fmt.Errorf("%w: lesson has not ended yet", ErrInvalidTransition)
	}

	updates := map[string]interface{}{"status": target}
	switch target {
	case models.BookingCancelled:
		updates["cancelled_by"] = actor.Role
		updates["cancelled_at"] = s.now()
		if reason != nil {
			updates["cancellation_reason"] = *reason
		}
	case models.BookingCompleted:
		updates["completed_at"] = s.now()
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

// Cancel is UpdateStatus sugar for the cancellation edge.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, bookingID uuid.UUID, reason *string) (*models.Booking, error) {
	return s.UpdateStatus(ctx, actor, bookingID, models.BookingCancelled, reason)
}

type RescheduleInput struct {
	NewScheduledDate time.Time
	Reason           *string
}

// Reschedule moves a booking to a new window of the same duration. The
// notice window is measured against the current scheduled date; the conflict
// check runs against the new window, excluding the booking itself.
func (s *BookingService) Reschedule(ctx context.Context, actor Actor, bookingID uuid.UUID, input RescheduleInput) (*models.Booking, error) {
	if !input.NewScheduledDate.After(s.now()) {
		return nil, fmt.Errorf("%w: new scheduled date must be in the future", ErrValidation)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	rule, err := ruleFor(booking.Status, models.BookingRescheduled)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, booking, rule); err != nil {
		return nil, err
	}
	if err := checkNotice(s.policy, actor, booking, models.BookingRescheduled, s.now()); err != nil {
		return nil, err
	}

	newStart := input.NewScheduledDate
	newEnd := newStart.Add(time.Duration(booking.Duration * float64(time.Hour)))

	updates := map[string]interface{}{
		"status":                  models.BookingRescheduled,
		"original_scheduled_date": booking.ScheduledDate,
		"scheduled_date":          newStart,
		"start_time":              newStart,
		"end_time":                newEnd,
		"rescheduled_by":          actor.Role,
	}
	if input.Reason != nil {
		updates["reschedule_reason"] = *input.Reason
	}

	updated, err := s.bookings.RescheduleIfCurrent(ctx, booking, booking.Status, newStart, newEnd, updates)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTimeConflict):
			return nil, ErrSchedulingConflict
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, fmt.Errorf("%w: booking changed, please retry", ErrInvalidTransition)
		}
		return nil, err
	}
	return updated, nil
}

type MeetingDetailsInput struct {
	MeetingLink *string
	Location    *string
}

// UpdateMeetingDetails sets the meeting link and/or location. Either party
// may do it; the link must be a well-formed http(s) URL.
func (s *BookingService) UpdateMeetingDetails(ctx context.Context, actor Actor, bookingID uuid.UUID, input MeetingDetailsInput) (*models.Booking, error) {
	if input.MeetingLink == nil && input.Location == nil {
		return nil, fmt.Errorf("%w: meeting link or location is required", ErrValidation)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(booking) {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if input.MeetingLink != nil {
		parsed, err := url.ParseRequestURI(*input.MeetingLink)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("%w: invalid meeting link URL", ErrValidation)
		}
		updates["meeting_link"] = *input.MeetingLink
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}

	return s.bookings.Updates(ctx, bookingID, updates)
}

// SubmitTutorFeedback records the tutor's written feedback on a completed
// lesson. Distinct from ratings, which belong to students.
func (s *BookingService) SubmitTutorFeedback(ctx context.Context, tutorID, bookingID uuid.UUID, feedback string) (*models.Booking, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, fmt.Errorf("%w: feedback is required", ErrValidation)
	}

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
		return nil, fmt.Errorf("%w: feedback is only allowed on completed lessons", ErrInvalidTransition)
	}

	updated, err := s.bookings.UpdateIfStatus(ctx, bookingID, models.BookingCompleted, map[string]interface{}{
		"tutor_feedback": feedback,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: feedback is only allowed on completed lessons", ErrInvalidTransition)
		}
		return nil, err
	}
	return updated, nil
}

// BookingAnalytics is the per-actor booking summary shown on dashboards.
type BookingAnalytics struct {
	repository.BookingStats
	CompletionRate   float64 `json:"completion_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
}

func (s *BookingService) Analytics(ctx context.Context, actor Actor, startDate, endDate *time.Time) (*BookingAnalytics, error) {
	filter := repository.BookingListFilter{StartDate: startDate, EndDate: endDate}
	switch actor.Role {
	case models.ActorStudent:
		filter.StudentID = &actor.ID
	case models.ActorTutor:
		filter.TutorID = &actor.ID
	default:
		return nil, ErrForbidden
	}

	stats, err := s.bookings.StatsFor(ctx, filter)
	if err != nil {
		return nil, err
	}

	analytics := &BookingAnalytics{BookingStats: *stats}
	if stats.Total > 0 {
		analytics.CompletionRate = roundToOneDecimal(float64(stats.Completed) / float64(stats.Total) * 100)
		analytics.CancellationRate = roundToOneDecimal(float64(stats.Cancelled) / float64(stats.Total) * 100)
	}
	return analytics, nil
}
