package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jsquad/tutor_marketplace/models"
	"github.com/jsquad/tutor_marketplace/notifications"
	"github.com/jsquad/tutor_marketplace/repository"
)

type RegisterTutorRequest struct {
	FullName   string   `json:"full_name" validate:"required,min=2"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Location   string   `json:"location" validate:"required"`
	Bio        string   `json:"bio" validate:"required,min=20"`
	Education  string   `json:"education" validate:"required"`
	Experience int      `json:"experience" validate:"gte=0"`
	HourlyRate float64  `json:"hourly_rate" validate:"required,gt=0"`
	Languages  []string `json:"languages" validate:"required,min=1"`
	Subjects   []string `json:"subjects" validate:"required,min=1"`
}

func RegisterTutor(c *fiber.Ctx) error {
	var req RegisterTutorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	tutor := models.Tutor{
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   string(hashedPassword),
		Role:       "tutor",
		Location:   req.Location,
		Bio:        req.Bio,
		Education:  req.Education,
		Experience: req.Experience,
		HourlyRate: req.HourlyRate,
		Languages:  req.Languages,
		Subjects:   req.Subjects,
	}
	if err := tutorRepo.Create(c.Context(), &tutor); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create tutor"})
	}

	go notifications.SendEmail(tutor.FullName, tutor.Email, "Welcome!", "<h1>Welcome!</h1><p>Your tutor profile is live. Students can now book lessons with you.</p>")

	return c.Status(fiber.StatusCreated).JSON(tutor)
}

func parseFloatQuery(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// SearchTutors is the public tutor discovery endpoint. Only active tutors are
// listed; inactive ones stay reachable through their existing bookings.
func SearchTutors(c *fiber.Ctx) error {
	page, limit := parsePagination(c)

	filter := repository.TutorSearchFilter{
		Subject:    c.Query("subject"),
		Location:   c.Query("location"),
		MinRate:    parseFloatQuery(c, "min_rate"),
		MaxRate:    parseFloatQuery(c, "max_rate"),
		MinRating:  parseFloatQuery(c, "min_rating"),
		ActiveOnly: true,
		Page:       page,
		Limit:      limit,
		SortBy:     c.Query("sort_by"),
		SortDesc:   c.Query("order", "desc") == "desc",
	}

	tutors, total, err := tutorRepo.Search(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search tutors"})
	}

	return c.JSON(fiber.Map{
		"tutors":     tutors,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func GetTutor(c *fiber.Ctx) error {
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	tutor, err := tutorRepo.GetByID(c.Context(), tutorID)
	if err != nil || !tutor.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
	}
	return c.JSON(tutor)
}

type UpdateTutorProfileRequest struct {
	Bio        string   `json:"bio" validate:"omitempty,min=20"`
	Education  string   `json:"education"`
	Location   string   `json:"location"`
	Experience *int     `json:"experience" validate:"omitempty,gte=0"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,gt=0"`
	Languages  []string `json:"languages"`
	Subjects   []string `json:"subjects"`
}

// UpdateTutorProfile writes only the submitted profile columns. The rating
// aggregate columns are never part of this update.
func UpdateTutorProfile(c *fiber.Ctx) error {
	actor := currentActor(c)

	var req UpdateTutorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.Education != "" {
		updates["education"] = req.Education
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.Experience != nil {
		updates["experience"] = *req.Experience
	}
	if req.HourlyRate != nil {
		updates["hourly_rate"] = *req.HourlyRate
	}
	if len(req.Languages) > 0 {
		updates["languages"] = pq.StringArray(req.Languages)
	}
	if len(req.Subjects) > 0 {
		updates["subjects"] = pq.StringArray(req.Subjects)
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}
	updates["updated_at"] = time.Now()

	tutor, err := tutorRepo.UpdateProfile(c.Context(), actor.ID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	return c.JSON(tutor)
}

// GetTutorRatings is public: prospective students read a tutor's reviews
// before booking.
func GetTutorRatings(c *fiber.Ctx) error {
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}
	page, limit := parsePagination(c)

	ratings, total, err := ratingService.ListByTutor(c.Context(), tutorID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load ratings"})
	}

	return c.JSON(fiber.Map{
		"ratings":    ratings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
