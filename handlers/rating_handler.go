package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/services"
)

type SubmitRatingRequest struct {
	TutorID   string `json:"tutor_id" validate:"required,uuid"`
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=500"`
}

func SubmitRating(c *fiber.Ctx) error {
	actor := currentActor(c)

	var req SubmitRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tutorID, _ := uuid.Parse(req.TutorID)
	bookingID, _ := uuid.Parse(req.BookingID)

	rating, aggregate, err := ratingService.Submit(c.Context(), actor.ID, services.SubmitRatingInput{
		TutorID:   tutorID,
		BookingID: bookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"rating":          rating,
		"tutor_aggregate": aggregate,
	})
}

func GetMyRatings(c *fiber.Ctx) error {
	actor := currentActor(c)
	page, limit := parsePagination(c)

	ratings, total, err := ratingService.ListByStudent(c.Context(), actor.ID, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"ratings":    ratings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
