package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus is the lifecycle state of a booking. Completed and cancelled
// are terminal: once reached, no further status transitions are permitted.
type BookingStatus string

const (
	BookingPending     BookingStatus = "pending"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
	BookingRescheduled BookingStatus = "rescheduled"
)

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Active statuses take part in tutor availability: only pending and confirmed
// bookings can conflict with a candidate time window.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Actor identifies who performed a cancellation or reschedule.
const (
	ActorStudent = "student"
	ActorTutor   = "tutor"
	ActorAdmin   = "admin"
)

// Payment status labels. Payments themselves are handled outside this system;
// the booking only carries the label.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
	PaymentFailed   = "failed"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID uuid.UUID `gorm:"not null;index:idx_bookings_student_date" json:"student_id"`
	TutorID   uuid.UUID `gorm:"not null;index:idx_bookings_tutor_date;index:idx_bookings_tutor_status" json:"tutor_id"`

	Subject string `gorm:"size:255;not null" json:"subject"`

	ScheduledDate time.Time `gorm:"not null;index:idx_bookings_student_date;index:idx_bookings_tutor_date" json:"scheduled_date"`
	StartTime     time.Time `gorm:"not null" json:"start_time"`
	EndTime       time.Time `gorm:"not null;index:idx_bookings_status_end" json:"end_time"`
	Duration      float64   `gorm:"not null" json:"duration"`

	HourlyRate  float64 `gorm:"type:numeric(10,2);not null" json:"hourly_rate"`
	TotalAmount float64 `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	Status        BookingStatus `gorm:"size:20;not null;default:'pending';index;index:idx_bookings_tutor_status;index:idx_bookings_status_end" json:"status"`
	PaymentStatus string        `gorm:"size:20;not null;default:'pending';index" json:"payment_status"`

	MeetingPreference string  `gorm:"size:20;default:'zoom'" json:"meeting_preference"`
	MeetingLink       *string `gorm:"size:255" json:"meeting_link"`
	Location          *string `gorm:"size:255" json:"location"`

	Notes         *string `gorm:"size:500" json:"notes"`
	TutorFeedback *string `gorm:"size:500" json:"tutor_feedback"`

	CancellationReason *string    `gorm:"size:500" json:"cancellation_reason"`
	CancelledBy        *string    `gorm:"size:10" json:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at"`

	OriginalScheduledDate *time.Time `json:"original_scheduled_date"`
	RescheduleReason      *string    `gorm:"size:500" json:"reschedule_reason"`
	RescheduledBy         *string    `gorm:"size:10" json:"rescheduled_by"`

	CompletedAt     *time.Time `json:"completed_at"`
	LessonNotes     string     `gorm:"size:1000" json:"lesson_notes"`
	NextSteps       string     `gorm:"size:500" json:"next_steps"`
	StudentProgress string     `gorm:"size:500" json:"student_progress"`
	NotesUpdatedAt  *time.Time `json:"notes_updated_at"`

	DisputeStatus     *string    `gorm:"size:20" json:"dispute_status,omitempty"`
	AdminNotes        *string    `gorm:"size:1000" json:"admin_notes,omitempty"`
	DisputeResolution *string    `gorm:"size:1000" json:"dispute_resolution,omitempty"`
	DisputeResolvedAt *time.Time `json:"dispute_resolved_at,omitempty"`
	RefundAmount      *float64   `gorm:"type:numeric(10,2)" json:"refund_amount,omitempty"`

	Student User  `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Tutor   Tutor `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recalculate fills the fields derived from scheduling and pricing inputs:
// total amount from duration and the snapshotted hourly rate, and the
// half-open lesson window [StartTime, EndTime) from the scheduled date.
func (b *Booking) Recalculate() {
	b.TotalAmount = b.Duration * b.HourlyRate
	b.StartTime = b.ScheduledDate
	b.EndTime = b.ScheduledDate.Add(time.Duration(b.Duration * float64(time.Hour)))
}

func (b *Booking) BeforeSave(tx *gorm.DB) error {
	b.Recalculate()
	if b.Status == BookingCompleted && b.CompletedAt == nil {
		now := time.Now()
		b.CompletedAt = &now
	}
	return nil
}

// CanBeCompleted reports whether the lesson is waiting on the tutor's
// completion action.
func (b *Booking) CanBeCompleted(now time.Time) bool {
	return b.Status == BookingConfirmed && !now.Before(b.EndTime)
}

// CanBeRated reports whether the student may submit a rating for this lesson.
func (b *Booking) CanBeRated() bool {
	return b.Status == BookingCompleted
}
