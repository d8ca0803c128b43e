package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

// GetStudentDashboard bundles the student's booking stats, their next
// confirmed lessons and the tutors they book most.
func GetStudentDashboard(c *fiber.Ctx) error {
	actor := currentActor(c)

	stats, err := bookingRepo.StatsFor(c.Context(), repository.BookingListFilter{StudentID: &actor.ID})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}

	now := time.Now()
	confirmed := models.BookingConfirmed
	upcoming, _, err := bookingRepo.List(c.Context(), repository.BookingListFilter{
		StudentID: &actor.ID,
		Status:    &confirmed,
		StartDate: &now,
		Page:      1,
		Limit:     5,
		SortBy:    "scheduled_date",
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}

	favoriteIDs, err := bookingRepo.FavoriteTutorIDs(c.Context(), actor.ID, 3)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}
	favorites, err := tutorRepo.GetByIDs(c.Context(), favoriteIDs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}

	return c.JSON(fiber.Map{
		"stats":            stats,
		"upcoming_lessons": upcoming,
		"favorite_tutors":  favorites,
	})
}

// GetTutorDashboard bundles the tutor's booking stats, the lessons awaiting a
// completion action, their latest ratings and the current rating aggregate.
func GetTutorDashboard(c *fiber.Ctx) error {
	actor := currentActor(c)

	stats, err := bookingRepo.StatsFor(c.Context(), repository.BookingListFilter{TutorID: &actor.ID})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard"})
	}

	completable, completableTotal, err := lessonService.ListCompletable(c.Context(), actor.ID, 1, 5)
	if err != nil {
		return mapServiceError(c, err)
	}

	recentRatings, _, err := ratingService.ListByTutor(c.Context(), actor.ID, 1, 5)
	if err != nil {
		return mapServiceError(c, err)
	}

	tutor, err := tutorRepo.GetByID(c.Context(), actor.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}

	return c.JSON(fiber.Map{
		"stats":               stats,
		"completable_lessons": completable,
		"completable_total":   completableTotal,
		"recent_ratings":      recentRatings,
		"average_rating":      tutor.AverageRating,
		"total_ratings":       tutor.TotalRatings,
	})
}
