package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one student's evaluation of one completed booking. The composite
// unique index is the authority on the one-rating-per-booking rule: concurrent
// submissions race on the index, not on an application-level existence check.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID uuid.UUID `gorm:"not null;uniqueIndex:idx_ratings_student_tutor_booking" json:"student_id"`
	TutorID   uuid.UUID `gorm:"not null;uniqueIndex:idx_ratings_student_tutor_booking;index" json:"tutor_id"`
	BookingID uuid.UUID `gorm:"not null;uniqueIndex:idx_ratings_student_tutor_booking" json:"booking_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `gorm:"size:500" json:"comment"`

	Student User    `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Tutor   Tutor   `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`
	Booking Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
