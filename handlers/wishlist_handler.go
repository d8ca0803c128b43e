package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func AddToWishlist(c *fiber.Ctx) error {
	actor := currentActor(c)
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	user, err := userRepo.GetByID(c.Context(), actor.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}
	tutor, err := tutorRepo.GetByID(c.Context(), tutorID)
	if err != nil || !tutor.IsActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
	}

	if err := userRepo.AddToWishlist(c.Context(), user, tutor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update wishlist"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Tutor added to wishlist"})
}

func RemoveFromWishlist(c *fiber.Ctx) error {
	actor := currentActor(c)
	tutorID, err := uuid.Parse(c.Params("tutorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor id"})
	}

	user, err := userRepo.GetByID(c.Context(), actor.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
	}
	tutor, err := tutorRepo.GetByID(c.Context(), tutorID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tutor not found"})
	}

	if err := userRepo.RemoveFromWishlist(c.Context(), user, tutor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update wishlist"})
	}
	return c.JSON(fiber.Map{"message": "Tutor removed from wishlist"})
}

func GetWishlist(c *fiber.Ctx) error {
	actor := currentActor(c)

	tutors, err := userRepo.GetWishlist(c.Context(), actor.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load wishlist"})
	}
	return c.JSON(fiber.Map{"wishlist": tutors})
}
