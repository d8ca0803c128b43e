package services

import (
	"fmt"
	"time"

	config "github.com/jsquad/tutor_marketplace/configs"
	"github.com/jsquad/tutor_marketplace/models"
)

// authorizeTransition is the single place role and ownership are judged for a
// status change. It answers allow/deny for (actor, booking, rule) and nothing
// else; timing policy lives in checkNotice.
func authorizeTransition(actor Actor, booking *models.Booking, rule transitionRule) error {
	if actor.IsAdmin() {
		if rule.adminAllowed {
			return nil
		}
		return fmt.Errorf("%w: this action belongs to the booking's parties", ErrForbidden)
	}
	if !rule.roles[actor.Role] {
		return fmt.Errorf("%w: role %s may not perform this transition", ErrForbidden, actor.Role)
	}
	if !actor.Owns(booking) {
		return fmt.Errorf("%w: not a party to this booking", ErrForbidden)
	}
	return nil
}

// checkNotice enforces the minimum-notice window against the booking's
// current scheduled start. Admins bypass it; students bypass it for
// cancellations when the policy toggle says so.
func checkNotice(policy config.BookingPolicy, actor Actor, booking *models.Booking, target models.BookingStatus, now time.Time) error {
	if actor.IsAdmin() {
		return nil
	}
	if target == models.BookingCancelled &&
		actor.Role == models.ActorStudent &&
		!policy.EnforceStudentCancelNotice {
		return nil
	}

	window := time.Duration(policy.CancellationNoticeHours) * time.Hour
	if booking.ScheduledDate.Sub(now) < window {
		return fmt.Errorf("%w: requires at least %d hours notice", ErrNoticeWindow, policy.CancellationNoticeHours)
	}
	return nil
}
