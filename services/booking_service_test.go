package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/jsquad/tutor_marketplace/configs"
	"github.com/jsquad/tutor_marketplace/models"
)

var testClock = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func defaultPolicy() config.BookingPolicy {
	return config.BookingPolicy{
		CancellationNoticeHours:    24,
		EnforceStudentCancelNotice: true,
		AllowEarlyCompletion:       true,
	}
}

func newTestBookingService(store *memBookingStore, tutors *stubTutorReader, policy config.BookingPolicy) *BookingService {
	svc := NewBookingService(store, tutors, policy)
	svc.now = func() time.Time { return testClock }
	return svc
}

func activeTutor(rate float64, subjects ...string) *models.Tutor {
	return &models.Tutor{
		ID:         uuid.New(),
		FullName:   "Amina Osei",
		Email:      "amina@example.com",
		HourlyRate: rate,
		Subjects:   pq.StringArray(subjects),
		IsActive:   true,
	}
}

func scheduledBooking(studentID, tutorID uuid.UUID, status models.BookingStatus, start time.Time, duration float64) *models.Booking {
	booking := &models.Booking{
		ID:            uuid.New(),
		StudentID:     studentID,
		TutorID:       tutorID,
		Subject:       "Mathematics",
		ScheduledDate: start,
		Duration:      duration,
		HourlyRate:    20,
		Status:        status,
	}
	booking.Recalculate()
	return booking
}

func TestCreateBookingComputesDerivedFields(t *testing.T) {
	tutor := activeTutor(20, "Mathematics", "Physics")
	tutors := newStubTutorReader(tutor)
	store := newMemBookingStore()
	svc := newTestBookingService(store, tutors, defaultPolicy())

	studentID := uuid.New()
	start := testClock.Add(48 * time.Hour)

	booking, err := svc.Create(context.Background(), studentID, CreateBookingInput{
		TutorID:       tutor.ID,
		Subject:       "mathematics",
		ScheduledDate: start,
		Duration:      2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, 40.0, booking.TotalAmount)
	assert.Equal(t, 20.0, booking.HourlyRate)
	assert.Equal(t, start, booking.StartTime)
	assert.Equal(t, start.Add(2*time.Hour), booking.EndTime)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)
}

func TestCreateBookingValidation(t *testing.T) {
	tutor := activeTutor(20, "Mathematics")
	svc := newTestBookingService(newMemBookingStore(), newStubTutorReader(tutor), defaultPolicy())
	studentID := uuid.New()
	future := testClock.Add(48 * time.Hour)

	cases := []struct {
		name  string
		input CreateBookingInput
		want  error
	}{
		{
			name:  "duration below minimum",
			input: CreateBookingInput{TutorID: tutor.ID, Subject: "Mathematics", ScheduledDate: future, Duration: 0.25},
			want:  ErrValidation,
		},
		{
			name:  "missing subject",
			input: CreateBookingInput{TutorID: tutor.ID, Subject: "  ", ScheduledDate: future, Duration: 1},
			want:  ErrValidation,
		},
		{
			name:  "scheduled in the past",
			input: CreateBookingInput{TutorID: tutor.ID, Subject: "Mathematics", ScheduledDate: testClock.Add(-time.Hour), Duration: 1},
			want:  ErrValidation,
		},
		{
			name:  "subject not taught",
			input: CreateBookingInput{TutorID: tutor.ID, Subject: "Chemistry", ScheduledDate: future, Duration: 1},
			want:  ErrSubjectNotTaught,
		},
		{
			name:  "unknown tutor",
			input: CreateBookingInput{TutorID: uuid.New(), Subject: "Mathematics", ScheduledDate: future, Duration: 1},
			want:  ErrTutorNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), studentID, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateBookingRejectsInactiveTutor(t *testing.T) {
	tutor := activeTutor(20, "Mathematics")
	tutor.IsActive = false
	svc := newTestBookingService(newMemBookingStore(), newStubTutorReader(tutor), defaultPolicy())

	_, err := svc.Create(context.Background(), uuid.New(), CreateBookingInput{
		TutorID:       tutor.ID,
		Subject:       "Mathematics",
		ScheduledDate: testClock.Add(48 * time.Hour),
		Duration:      1,
	})
	assert.ErrorIs(t, err, ErrTutorNotFound)
}

func TestCreateBookingDetectsOverlap(t *testing.T) {
	tutor := activeTutor(25, "Physics")
	start := testClock.Add(48 * time.Hour)
	existing := scheduledBooking(uuid.New(), tutor.ID, models.BookingConfirmed, start, 2)
	store := newMemBookingStore(existing)
	svc := newTestBookingService(store, newStubTutorReader(tutor), defaultPolicy())

	// Starts one hour into the existing lesson.
	_, err := svc.Create(context.Background(), uuid.New(), CreateBookingInput{
		TutorID:       tutor.ID,
		Subject:       "Physics",
		ScheduledDate: start.Add(time.Hour),
		Duration:      2,
	})
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	// Back to back is fine: the intervals are half-open.
	booking, err := svc.Create(context.Background(), uuid.New(), CreateBookingInput{
		TutorID:       tutor.ID,
		Subject:       "Physics",
		ScheduledDate: start.Add(2 * time.Hour),
		Duration:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
}

func TestCreateBookingIgnoresInactiveStatuses(t *testing.T) {
	tutor := activeTutor(25, "Physics")
	start := testClock.Add(48 * time.Hour)
	cancelled := scheduledBooking(uuid.New(), tutor.ID, models.BookingCancelled, start, 2)
	store := newMemBookingStore(cancelled)
	svc := newTestBookingService(store, newStubTutorReader(tutor), defaultPolicy())

	_, err := svc.Create(context.Background(), uuid.New(), CreateBookingInput{
		TutorID:       tutor.ID,
		Subject:       "Physics",
		ScheduledDate: start,
		Duration:      2,
	})
	assert.NoError(t, err)
}

func TestTutorConfirmsPendingBooking(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingPending, testClock.Add(48*time.Hour), 1)
	store := newMemBookingStore(booking)
	svc := newTestBookingService(store, newStubTutorReader(), defaultPolicy())

	updated, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, models.BookingConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
}

func TestStudentCannotConfirm(t *testing.T) {
	studentID := uuid.New()
	booking := scheduledBooking(studentID, uuid.New(), models.BookingPending, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, models.BookingConfirmed, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOtherTutorCannotConfirm(t *testing.T) {
	booking := scheduledBooking(uuid.New(), uuid.New(), models.BookingPending, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: uuid.New(), Role: models.ActorTutor}, booking.ID, models.BookingConfirmed, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStudentCancelInsideNoticeWindow(t *testing.T) {
	studentID := uuid.New()
	// Lesson is two hours away, well inside the 24 hour window.
	booking := scheduledBooking(studentID, uuid.New(), models.BookingConfirmed, testClock.Add(2*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	_, err := svc.Cancel(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, nil)
	assert.ErrorIs(t, err, ErrNoticeWindow)
}

func TestStudentCancelNoticeToggleDisabled(t *testing.T) {
	studentID := uuid.New()
	booking := scheduledBooking(studentID, uuid.New(), models.BookingConfirmed, testClock.Add(2*time.Hour), 1)
	policy := defaultPolicy()
	policy.EnforceStudentCancelNotice = false
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), policy)

	reason := "emergency"
	updated, err := svc.Cancel(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, models.ActorStudent, *updated.CancelledBy)
	require.NotNil(t, updated.CancellationReason)
	assert.Equal(t, "emergency", *updated.CancellationReason)
	assert.NotNil(t, updated.CancelledAt)
}

func TestTutorCancelSubjectToNotice(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingConfirmed, testClock.Add(2*time.Hour), 1)
	policy := defaultPolicy()
	policy.EnforceStudentCancelNotice = false // toggle is student-only
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), policy)

	_, err := svc.Cancel(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, nil)
	assert.ErrorIs(t, err, ErrNoticeWindow)
}

func TestAdminCancelBypassesNotice(t *testing.T) {
	booking := scheduledBooking(uuid.New(), uuid.New(), models.BookingConfirmed, testClock.Add(time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	updated, err := svc.Cancel(context.Background(), Actor{ID: uuid.New(), Role: models.ActorAdmin}, booking.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, models.ActorAdmin, *updated.CancelledBy)
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	tutorID := uuid.New()
	for _, status := range []models.BookingStatus{models.BookingCompleted, models.BookingCancelled} {
		booking := scheduledBooking(uuid.New(), tutorID, status, testClock.Add(48*time.Hour), 1)
		svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

		for _, target := range []models.BookingStatus{models.BookingConfirmed, models.BookingCancelled, models.BookingCompleted} {
			_, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, target, nil)
			assert.ErrorIs(t, err, ErrInvalidTransition, "from %s to %s", status, target)
		}
	}
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingPending, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, models.BookingStatus("paused"), nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusHonorsEarlyCompletionPolicy(t *testing.T) {
	tutorID := uuid.New()
	// Confirmed lesson ending six hours from now.
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingConfirmed, testClock.Add(5*time.Hour), 1)
	policy := defaultPolicy()
	policy.AllowEarlyCompletion = false
	store := newMemBookingStore(booking)
	svc := newTestBookingService(store, newStubTutorReader(), policy)

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, models.BookingCompleted, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, current.Status)
}

func TestUpdateStatusCompletesEndedLessonUnderStrictPolicy(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingConfirmed, testClock.Add(-2*time.Hour), 1)
	policy := defaultPolicy()
	policy.AllowEarlyCompletion = false
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), policy)

	updated, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, models.BookingCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestUpdateStatusRejectsRescheduledTarget(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingConfirmed, testClock.Add(48*time.Hour), 1)
	store := newMemBookingStore(booking)
	svc := newTestBookingService(store, newStubTutorReader(), defaultPolicy())

	_, err := svc.UpdateStatus(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID, models.BookingRescheduled, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, current.Status)
}

func TestUpdateStatusStaleReadRejected(t *testing.T) {
	tutorID := uuid.New()
	booking := scheduledBooking(uuid.New(), tutorID, models.BookingPending, testClock.Add(48*time.Hour), 1)
	store := newMemBookingStore(booking)
	svc := newTestBookingService(store, newStubTutorReader(), defaultPolicy())
	actor := Actor{ID: tutorID, Role: models.ActorTutor}

	// Another request wins the race after our read.
	_, err := svc.UpdateStatus(context.Background(), actor, booking.ID, models.BookingConfirmed, nil)
	require.NoError(t, err)

	// Simulate the loser performing its write against the stale pending read.
	_, err = store.UpdateStatusIfCurrent(context.Background(), booking.ID, models.BookingPending, map[string]interface{}{
		"status": models.BookingCancelled,
	})
	assert.Error(t, err)
}

func TestRescheduleMovesWindowAndKeepsAudit(t *testing.T) {
	studentID := uuid.New()
	originalStart := testClock.Add(72 * time.Hour)
	booking := scheduledBooking(studentID, uuid.New(), models.BookingConfirmed, originalStart, 1.5)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	newStart := testClock.Add(96 * time.Hour)
	reason := "travel"
	updated, err := svc.Reschedule(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, RescheduleInput{
		NewScheduledDate: newStart,
		Reason:           &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingRescheduled, updated.Status)
	assert.Equal(t, newStart, updated.ScheduledDate)
	assert.Equal(t, newStart, updated.StartTime)
	assert.Equal(t, newStart.Add(90*time.Minute), updated.EndTime)
	require.NotNil(t, updated.OriginalScheduledDate)
	assert.Equal(t, originalStart, *updated.OriginalScheduledDate)
	require.NotNil(t, updated.RescheduledBy)
	assert.Equal(t, models.ActorStudent, *updated.RescheduledBy)
	assert.Equal(t, 30.0, updated.TotalAmount)
}

func TestRescheduleConflictLeavesBookingUntouched(t *testing.T) {
	tutorID := uuid.New()
	studentID := uuid.New()
	originalStart := testClock.Add(72 * time.Hour)
	booking := scheduledBooking(studentID, tutorID, models.BookingConfirmed, originalStart, 1)
	blockerStart := testClock.Add(96 * time.Hour)
	blocker := scheduledBooking(uuid.New(), tutorID, models.BookingPending, blockerStart, 2)
	store := newMemBookingStore(booking, blocker)
	svc := newTestBookingService(store, newStubTutorReader(), defaultPolicy())

	_, err := svc.Reschedule(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, RescheduleInput{
		NewScheduledDate: blockerStart.Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	unchanged, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, originalStart, unchanged.ScheduledDate)
	assert.Equal(t, models.BookingConfirmed, unchanged.Status)
}

func TestRescheduleInsideNoticeWindow(t *testing.T) {
	studentID := uuid.New()
	booking := scheduledBooking(studentID, uuid.New(), models.BookingConfirmed, testClock.Add(3*time.Hour), 1)
	// The student cancel toggle must not loosen rescheduling.
	policy := defaultPolicy()
	policy.EnforceStudentCancelNotice = false
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), policy)

	_, err := svc.Reschedule(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, RescheduleInput{
		NewScheduledDate: testClock.Add(96 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrNoticeWindow)
}

func TestRescheduleCanExcludeItself(t *testing.T) {
	studentID := uuid.New()
	originalStart := testClock.Add(72 * time.Hour)
	booking := scheduledBooking(studentID, uuid.New(), models.BookingPending, originalStart, 2)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	// Shift by 30 minutes: overlaps only with itself.
	updated, err := svc.Reschedule(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID, RescheduleInput{
		NewScheduledDate: originalStart.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingRescheduled, updated.Status)
}

func TestGetEnforcesOwnership(t *testing.T) {
	studentID := uuid.New()
	tutorID := uuid.New()
	booking := scheduledBooking(studentID, tutorID, models.BookingPending, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())

	_, err := svc.Get(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, booking.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), Actor{ID: tutorID, Role: models.ActorTutor}, booking.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), Actor{ID: uuid.New(), Role: models.ActorAdmin}, booking.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), Actor{ID: uuid.New(), Role: models.ActorStudent}, booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateMeetingDetails(t *testing.T) {
	studentID := uuid.New()
	booking := scheduledBooking(studentID, uuid.New(), models.BookingConfirmed, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(booking), newStubTutorReader(), defaultPolicy())
	actor := Actor{ID: studentID, Role: models.ActorStudent}

	link := "https://meet.example.com/abc"
	updated, err := svc.UpdateMeetingDetails(context.Background(), actor, booking.ID, MeetingDetailsInput{MeetingLink: &link})
	require.NoError(t, err)
	require.NotNil(t, updated.MeetingLink)
	assert.Equal(t, link, *updated.MeetingLink)

	bad := "not a url"
	_, err = svc.UpdateMeetingDetails(context.Background(), actor, booking.ID, MeetingDetailsInput{MeetingLink: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateMeetingDetails(context.Background(), actor, booking.ID, MeetingDetailsInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitTutorFeedback(t *testing.T) {
	tutorID := uuid.New()
	completed := scheduledBooking(uuid.New(), tutorID, models.BookingCompleted, testClock.Add(-48*time.Hour), 1)
	pending := scheduledBooking(uuid.New(), tutorID, models.BookingPending, testClock.Add(48*time.Hour), 1)
	svc := newTestBookingService(newMemBookingStore(completed, pending), newStubTutorReader(), defaultPolicy())

	updated, err := svc.SubmitTutorFeedback(context.Background(), tutorID, completed.ID, "great progress")
	require.NoError(t, err)
	require.NotNil(t, updated.TutorFeedback)
	assert.Equal(t, "great progress", *updated.TutorFeedback)

	_, err = svc.SubmitTutorFeedback(context.Background(), tutorID, pending.ID, "too early")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SubmitTutorFeedback(context.Background(), uuid.New(), completed.ID, "not mine")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAnalyticsRates(t *testing.T) {
	studentID := uuid.New()
	tutorID := uuid.New()
	store := newMemBookingStore(
		scheduledBooking(studentID, tutorID, models.BookingCompleted, testClock.Add(-72*time.Hour), 2),
		scheduledBooking(studentID, tutorID, models.BookingCompleted, testClock.Add(-48*time.Hour), 1),
		scheduledBooking(studentID, tutorID, models.BookingCancelled, testClock.Add(-24*time.Hour), 1),
		scheduledBooking(studentID, tutorID, models.BookingPending, testClock.Add(24*time.Hour), 1),
	)
	svc := newTestBookingService(store, newStubTutorReader(), defaultPolicy())

	analytics, err := svc.Analytics(context.Background(), Actor{ID: studentID, Role: models.ActorStudent}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), analytics.Total)
	assert.Equal(t, int64(2), analytics.Completed)
	assert.Equal(t, 50.0, analytics.CompletionRate)
	assert.Equal(t, 25.0, analytics.CancellationRate)
	assert.Equal(t, 60.0, analytics.TotalAmount)
}
