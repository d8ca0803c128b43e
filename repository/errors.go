package repository

import "errors"

var (
	// ErrTimeConflict means an active booking for the same tutor overlaps the
	// requested window.
	ErrTimeConflict = errors.New("tutor has a conflicting booking")

	// ErrStaleStatus means a conditional update matched no row: the booking's
	// status changed between the caller's read and the write.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)
