package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/jsquad/tutor_marketplace/database"
	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/notifications"
)

// NudgeUnmarkedLessons finds confirmed lessons that ended roughly a day ago
// and emails the tutor to mark them completed. Completion stays a tutor
// action; the sweep only reminds, it never changes status.
func NudgeUnmarkedLessons() {
	log.Println("Running job: NudgeUnmarkedLessons...")

	now := time.Now()
	lowerBound := now.Add(-25 * time.Hour)
	upperBound := now.Add(-24 * time.Hour)

	var stale []models.Booking
	err := database.DB.
		Preload("Tutor").
		Where("status = ?", models.BookingConfirmed).
		Where("end_time BETWEEN ? AND ?", lowerBound, upperBound).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error checking for unmarked lessons: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	for _, booking := range stale {
		emailBody := fmt.Sprintf(
			"<h1>Lesson Awaiting Completion</h1><p>Your %s lesson on %s ended but has not been marked completed. Please complete it and add your lesson notes so the student can leave a rating.</p>",
			booking.Subject,
			booking.ScheduledDate.Format("Mon, 02 Jan 2006"),
		)
		go notifications.SendEmail(booking.Tutor.FullName, booking.Tutor.Email, "Please Mark Your Lesson Completed", emailBody)
	}

	log.Printf("Nudged tutors about %d unmarked lesson(s).", len(stale))
}
