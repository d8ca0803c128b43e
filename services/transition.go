package services

import (
	"fmt"

	"github.com/jsquad/tutor_marketplace/models"
)

// transitionRule describes one legal edge of the booking state machine:
// which roles may drive it and whether the minimum-notice window applies.
// Ownership is checked for every non-admin actor; admin access is granted
// only where adminAllowed is set.
type transitionRule struct {
	roles        map[string]bool
	adminAllowed bool
	noticeBound  bool
}

type transitionKey struct {
	from models.BookingStatus
	to   models.BookingStatus
}

// transitionTable enumerates every permitted status change. Anything absent
// is illegal, which in particular makes the terminal states (completed,
// cancelled) sources of nothing.
var transitionTable = map[transitionKey]transitionRule{}

func init() {
	// A rescheduled booking behaves like a pending one: it still needs the
	// tutor's confirmation and can be cancelled or moved again.
	sources := []models.BookingStatus{
		models.BookingPending,
		models.BookingConfirmed,
		models.BookingRescheduled,
	}
	for _, from := range sources {
		transitionTable[transitionKey{from, models.BookingConfirmed}] = transitionRule{
			roles: map[string]bool{models.ActorTutor: true},
		}
		transitionTable[transitionKey{from, models.BookingCompleted}] = transitionRule{
			roles: map[string]bool{models.ActorTutor: true},
		}
		transitionTable[transitionKey{from, models.BookingCancelled}] = transitionRule{
			roles:        map[string]bool{models.ActorStudent: true, models.ActorTutor: true},
			adminAllowed: true,
			noticeBound:  true,
		}
		transitionTable[transitionKey{from, models.BookingRescheduled}] = transitionRule{
			roles:       map[string]bool{models.ActorStudent: true, models.ActorTutor: true},
			noticeBound: true,
		}
	}
}

// ruleFor resolves the transition rule for a status change, rejecting
// terminal sources and unknown targets before any authorization happens.
func ruleFor(from, to models.BookingStatus) (transitionRule, error) {
	if from.Terminal() {
		return transitionRule{}, fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, from)
	}
	rule, ok := transitionTable[transitionKey{from, to}]
	if !ok {
		return transitionRule{}, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, to)
	}
	return rule, nil
}
