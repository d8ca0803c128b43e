package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/notifications"
	"github.com/jsquad/tutor_marketplace/services"
)

type CreateBookingRequest struct {
	TutorID           string  `json:"tutor_id" validate:"required,uuid"`
	Subject           string  `json:"subject" validate:"required"`
	ScheduledDate     string  `json:"scheduled_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Duration          float64 `json:"duration" validate:"required,gt=0"`
	Notes             *string `json:"notes" validate:"omitempty,max=500"`
	MeetingPreference string  `json:"meeting_preference" validate:"omitempty,oneof=zoom google_meet in_person"`
}

func CreateBooking(c *fiber.Ctx) error {
	actor := currentActor(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tutorID, _ := uuid.Parse(req.TutorID)
	scheduledDate, _ := time.Parse(time.RFC3339, req.ScheduledDate)

	booking, err := bookingService.Create(c.Context(), actor.ID, services.CreateBookingInput{
		TutorID:           tutorID,
		Subject:           req.Subject,
		ScheduledDate:     scheduledDate,
		Duration:          req.Duration,
		Notes:             req.Notes,
		MeetingPreference: req.MeetingPreference,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	go notifyBookingParties(booking.ID, models.BookingPending)

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func parseTimeQuery(c *fiber.Ctx, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func GetMyBookings(c *fiber.Ctx) error {
	actor := currentActor(c)
	page, limit := parsePagination(c)

	input := services.ListBookingsInput{
		StartDate: parseTimeQuery(c, "start_date"),
		EndDate:   parseTimeQuery(c, "end_date"),
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sort_by", "scheduled_date"),
		SortDesc:  c.Query("order", "desc") == "desc",
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		input.Status = &status
	}

	bookings, total, err := bookingService.ListFor(c.Context(), actor, input)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"bookings":   bookings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func GetBooking(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := bookingService.Get(c.Context(), actor, bookingID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(booking)
}

type UpdateBookingStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=confirmed completed cancelled"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

func UpdateBookingStatus(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	target := models.BookingStatus(req.Status)
	booking, err := bookingService.UpdateStatus(c.Context(), actor, bookingID, target, req.Reason)
	if err != nil {
		return mapServiceError(c, err)
	}

	go notifyBookingParties(booking.ID, target)

	return c.JSON(booking)
}

type CancelBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

func CancelBooking(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req CancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	booking, err := bookingService.Cancel(c.Context(), actor, bookingID, req.Reason)
	if err != nil {
		return mapServiceError(c, err)
	}

	go notifyBookingParties(booking.ID, models.BookingCancelled)

	return c.JSON(booking)
}

type RescheduleBookingRequest struct {
	NewScheduledDate string  `json:"new_scheduled_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Reason           *string `json:"reason" validate:"omitempty,max=500"`
}

func RescheduleBooking(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req RescheduleBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newDate, _ := time.Parse(time.RFC3339, req.NewScheduledDate)
	booking, err := bookingService.Reschedule(c.Context(), actor, bookingID, services.RescheduleInput{
		NewScheduledDate: newDate,
		Reason:           req.Reason,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	go notifyBookingParties(booking.ID, models.BookingRescheduled)

	return c.JSON(booking)
}

type MeetingDetailsRequest struct {
	MeetingLink *string `json:"meeting_link" validate:"omitempty,max=255"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
}

func UpdateMeetingDetails(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req MeetingDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := bookingService.UpdateMeetingDetails(c.Context(), actor, bookingID, services.MeetingDetailsInput{
		MeetingLink: req.MeetingLink,
		Location:    req.Location,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(booking)
}

type TutorFeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,min=10,max=500"`
}

func SubmitTutorFeedback(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req TutorFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := bookingService.SubmitTutorFeedback(c.Context(), actor.ID, bookingID, req.Feedback)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(booking)
}

func GetBookingAnalytics(c *fiber.Ctx) error {
	actor := currentActor(c)

	analytics, err := bookingService.Analytics(c.Context(), actor, parseTimeQuery(c, "start_date"), parseTimeQuery(c, "end_date"))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(analytics)
}

// notifyBookingParties emails the student and tutor about a lifecycle event.
// Runs in a goroutine off the request path; failures are logged inside the
// email service and never affect the response.
func notifyBookingParties(bookingID uuid.UUID, status models.BookingStatus) {
	booking, err := bookingRepo.GetDetailed(context.Background(), bookingID)
	if err != nil {
		return
	}

	when := booking.ScheduledDate.Format("Mon, 02 Jan 2006 at 15:04 MST")
	var subject, body string
	switch status {
	case models.BookingPending:
		subject = "New Lesson Request"
		body = fmt.Sprintf("<h1>New Lesson Request</h1><p>You have a new %s lesson request for %s.</p>", booking.Subject, when)
		notifications.SendEmail(booking.Tutor.FullName, booking.Tutor.Email, subject, body)
		return
	case models.BookingConfirmed:
		subject = "Lesson Confirmed"
		body = fmt.Sprintf("<h1>Lesson Confirmed</h1><p>Your %s lesson on %s has been confirmed.</p>", booking.Subject, when)
	case models.BookingCancelled:
		subject = "Lesson Cancelled"
		body = fmt.Sprintf("<h1>Lesson Cancelled</h1><p>The %s lesson on %s has been cancelled.</p>", booking.Subject, when)
	case models.BookingRescheduled:
		subject = "Lesson Rescheduled"
		body = fmt.Sprintf("<h1>Lesson Rescheduled</h1><p>The %s lesson has been moved to %s.</p>", booking.Subject, when)
	default:
		return
	}

	notifications.SendEmail(booking.Student.FullName, booking.Student.Email, subject, body)
	notifications.SendEmail(booking.Tutor.FullName, booking.Tutor.Email, subject, body)
}
