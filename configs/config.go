package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// BookingPolicy groups the timing rules the booking engine enforces.
// The student-notice toggle exists because product never settled on whether
// the 24 hour rule applies to student cancellations, so both behaviours are
// reachable through the environment instead of being hard-coded.
type BookingPolicy struct {
	// CancellationNoticeHours is the minimum notice, in hours, before the
	// scheduled start at which a non-admin may still cancel or reschedule.
	CancellationNoticeHours int

	// EnforceStudentCancelNotice applies the notice window to
	// student-initiated cancellations when true.
	EnforceStudentCancelNotice bool

	// AllowEarlyCompletion lets a tutor mark a lesson completed before its
	// scheduled end time.
	AllowEarlyCompletion bool
}

func LoadBookingPolicy() BookingPolicy {
	policy := BookingPolicy{
		CancellationNoticeHours:    24,
		EnforceStudentCancelNotice: true,
		AllowEarlyCompletion:       true,
	}

	if raw := Config("CANCELLATION_NOTICE_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			log.Printf("Warning: invalid CANCELLATION_NOTICE_HOURS %q, keeping default %d", raw, policy.CancellationNoticeHours)
		} else {
			policy.CancellationNoticeHours = hours
		}
	}
	if raw := Config("ENFORCE_STUDENT_CANCEL_NOTICE"); raw != "" {
		enforce, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("Warning: invalid ENFORCE_STUDENT_CANCEL_NOTICE %q, keeping default", raw)
		} else {
			policy.EnforceStudentCancelNotice = enforce
		}
	}
	if raw := Config("ALLOW_EARLY_COMPLETION"); raw != "" {
		allow, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("Warning: invalid ALLOW_EARLY_COMPLETION %q, keeping default", raw)
		} else {
			policy.AllowEarlyCompletion = allow
		}
	}

	return policy
}
