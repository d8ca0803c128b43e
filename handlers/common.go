package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/services"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

func currentActor(c *fiber.Ctx) services.Actor {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := uuid.Parse(claims["user_id"].(string))
	role, _ := claims["role"].(string)
	return services.Actor{ID: id, Role: role}
}

func parsePagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

type paginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func buildPaginationMeta(page, limit int, total int64) paginationMeta {
	var totalPages int64
	if total > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return paginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// mapServiceError translates the service sentinels into HTTP responses.
// Anything unrecognized is an infrastructure failure and comes back as a 500
// without leaking the underlying error to the client.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrNoticeWindow),
		errors.Is(err, services.ErrRatingNotAllowed),
		errors.Is(err, services.ErrSubjectNotTaught):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrTutorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSchedulingConflict),
		errors.Is(err, services.ErrDuplicateRating):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("🔥 Unexpected service error: %v | Path: %s", err, c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong, please try again"})
}
