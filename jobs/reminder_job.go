package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jsquad/tutor_marketplace/database"
	"github.com/jsquad/tutor_marketplace/notifications"
	"github.com/jsquad/tutor_marketplace/repository"
)

// SendLessonReminders emails both parties of confirmed lessons starting about
// an hour from now. The window matches the 5 minute cron cadence so each
// lesson is picked up exactly once.
func SendLessonReminders() {
	log.Println("Running job: SendLessonReminders...")

	now := time.Now()
	lowerBound := now.Add(60 * time.Minute)
	upperBound := now.Add(65 * time.Minute)

	bookings := repository.NewBookingRepository(database.DB)
	upcoming, err := bookings.ListUpcoming(context.Background(), lowerBound, upperBound, 200)
	if err != nil {
		log.Printf("Error checking for upcoming lessons: %v", err)
		return
	}
	if len(upcoming) == 0 {
		return
	}

	for _, booking := range upcoming {
		log.Printf("Sending reminder for booking ID: %s", booking.ID)

		emailSubject := "Reminder: Your Lesson Starts in 1 Hour!"
		emailBody := fmt.Sprintf(
			"<h1>Lesson Reminder</h1><p>Hi there,</p><p>Your %s lesson is scheduled to start in one hour at %s.</p>",
			booking.Subject,
			booking.ScheduledDate.Format(time.Kitchen),
		)
		if booking.MeetingLink != nil {
			emailBody += fmt.Sprintf("<p><b>Meeting Link:</b> <a href='%s'>Join Lesson</a></p>", *booking.MeetingLink)
		}

		go notifications.SendEmail(booking.Student.FullName, booking.Student.Email, emailSubject, emailBody)
		go notifications.SendEmail(booking.Tutor.FullName, booking.Tutor.Email, emailSubject, emailBody)
	}
}
