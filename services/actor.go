package services

import (
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/models"
)

// Actor is the authenticated caller of a service operation: who they are and
// which capability their token carries.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.ActorAdmin
}

// Owns reports whether the actor is a party to the booking in the capacity
// their role claims. Admins are not owners; admin access is granted
// explicitly where an operation allows it.
func (a Actor) Owns(booking *models.Booking) bool {
	switch a.Role {
	case models.ActorStudent:
		return booking.StudentID == a.ID
	case models.ActorTutor:
		return booking.TutorID == a.ID
	default:
		return false
	}
}
