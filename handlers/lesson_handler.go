package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/services"
)

type LessonNotesRequest struct {
	LessonNotes     string `json:"lesson_notes" validate:"omitempty,max=1000"`
	NextSteps       string `json:"next_steps" validate:"omitempty,max=500"`
	StudentProgress string `json:"student_progress" validate:"omitempty,max=500"`
}

// GetCompletableLessons lists the tutor's confirmed lessons whose window has
// ended and are waiting to be marked completed.
func GetCompletableLessons(c *fiber.Ctx) error {
	actor := currentActor(c)
	page, limit := parsePagination(c)

	lessons, total, err := lessonService.ListCompletable(c.Context(), actor.ID, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"lessons":    lessons,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func GetCompletedLessons(c *fiber.Ctx) error {
	actor := currentActor(c)
	page, limit := parsePagination(c)

	lessons, total, err := lessonService.ListCompleted(c.Context(), actor.ID, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"lessons":    lessons,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func CompleteLesson(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req LessonNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := lessonService.MarkCompleted(c.Context(), actor.ID, bookingID, services.LessonNotesInput{
		LessonNotes:     req.LessonNotes,
		NextSteps:       req.NextSteps,
		StudentProgress: req.StudentProgress,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(booking)
}

func UpdateLessonNotes(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req LessonNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := lessonService.UpdateNotes(c.Context(), actor.ID, bookingID, services.LessonNotesInput{
		LessonNotes:     req.LessonNotes,
		NextSteps:       req.NextSteps,
		StudentProgress: req.StudentProgress,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(booking)
}
