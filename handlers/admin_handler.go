package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/database"
	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/repository"
)

func GetAllUsers(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	users, total, err := userRepo.List(c.Context(), c.Query("search"), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load users"})
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func GetAllTutors(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	filter := repository.TutorSearchFilter{
		Subject:  c.Query("subject"),
		Location: c.Query("location"),
		Page:     page,
		Limit:    limit,
		SortBy:   c.Query("sort_by", "created_at"),
		SortDesc: true,
	}

	tutors, total, err := tutorRepo.Search(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load tutors"})
	}

	return c.JSON(fiber.Map{
		"tutors":     tutors,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func ToggleUserStatus(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := userRepo.SetActive(c.Context(), userID, *req.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}
	return c.JSON(fiber.Map{"message": "User status updated"})
}

func ToggleTutorStatus(c *fiber.Ctx) error {
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := tutorRepo.SetActive(c.Context(), tutorID, *req.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update tutor"})
	}
	return c.JSON(fiber.Map{"message": "Tutor status updated"})
}

func VerifyTutor(c *fiber.Ctx) error {
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	tutor, err := tutorRepo.UpdateProfile(c.Context(), tutorID, map[string]interface{}{"is_verified": true})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify tutor"})
	}
	return c.JSON(tutor)
}

// AdminGetAllBookings lists bookings across the whole marketplace with the
// same filters the per-actor listing supports.
func AdminGetAllBookings(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	filter := repository.BookingListFilter{
		StartDate: parseTimeQuery(c, "start_date"),
		EndDate:   parseTimeQuery(c, "end_date"),
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sort_by", "created_at"),
		SortDesc:  c.Query("order", "desc") == "desc",
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("student_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.StudentID = &id
		}
	}
	if raw := c.Query("tutor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.TutorID = &id
		}
	}

	bookings, total, err := bookingRepo.List(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load bookings"})
	}

	return c.JSON(fiber.Map{
		"bookings":   bookings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// AdminCancelBooking cancels on behalf of either party. Admins bypass the
// notice window; the reason lands on the booking like any other cancellation.
func AdminCancelBooking(c *fiber.Ctx) error {
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

func GetDisputedBookings(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	query := database.DB.WithContext(c.Context()).
		Model(&models.Booking{}).
		Where("dispute_status = ?", "open")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load disputes"})
	}

	var bookings []models.Booking
	err := query.
		Preload("Student").
		Preload("Tutor").
		Order("updated_at asc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&bookings).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load disputes"})
	}

	return c.JSON(fiber.Map{
		"bookings":   bookings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// GetSystemStats is the admin overview: entity counts plus marketplace-wide
// booking totals.
func GetSystemStats(c *fiber.Ctx) error {
	var userCount, tutorCount, ratingCount int64
	if err := database.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}
	if err := database.DB.Model(&models.Tutor{}).Count(&tutorCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}
	if err := database.DB.Model(&models.Rating{}).Count(&ratingCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}

	bookingStats, err := bookingRepo.StatsFor(c.Context(), repository.BookingListFilter{
		StartDate: parseTimeQuery(c, "start_date"),
		EndDate:   parseTimeQuery(c, "end_date"),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stats"})
	}

	return c.JSON(fiber.Map{
		"total_users":   userCount,
		"total_tutors":  tutorCount,
		"total_ratings": ratingCount,
		"bookings":      bookingStats,
	})
}
