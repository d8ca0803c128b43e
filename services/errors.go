package services

import "errors"

// Sentinel errors returned by the booking, lesson and rating services.
// Handlers translate these into HTTP responses; everything else that comes
// out of a service is an infrastructure failure the caller may retry.
var (
	ErrValidation         = errors.New("invalid input")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTutorNotFound      = errors.New("tutor not found or not available")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrSchedulingConflict = errors.New("tutor is not available at the requested time")
	ErrDuplicateRating    = errors.New("this booking has already been rated")
	ErrRatingNotAllowed   = errors.New("ratings are only allowed for your own completed lessons")
	ErrNoticeWindow       = errors.New("too close to the scheduled time")
	ErrSubjectNotTaught   = errors.New("tutor does not teach this subject")
)
