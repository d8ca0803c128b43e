package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jsquad/tutor_marketplace/models"
)

type OpenDisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

// OpenDispute flags a booking for admin review. Either party may open one;
// the booking itself keeps its lifecycle status.
func OpenDispute(c *fiber.Ctx) error {
	actor := currentActor(c)
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := bookingRepo.GetByID(c.Context(), bookingID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if !actor.Owns(booking) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
	}
	if booking.DisputeStatus != nil && *booking.DisputeStatus == "open" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A dispute is already open for this booking"})
	}

	updated, err := bookingRepo.Updates(c.Context(), bookingID, map[string]interface{}{
		"dispute_status": "open",
		"admin_notes":    actor.Role + ": " + req.Reason,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open dispute"})
	}
	return c.JSON(updated)
}

type ResolveDisputeRequest struct {
	Resolution   string   `json:"resolution" validate:"required,min=10,max=1000"`
	AdminNotes   string   `json:"admin_notes" validate:"omitempty,max=1000"`
	RefundAmount *float64 `json:"refund_amount" validate:"omitempty,gte=0"`
}

// ResolveDispute closes an open dispute. A refund amount marks the booking's
// payment as refunded; the money movement itself happens outside this system.
func ResolveDispute(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := bookingRepo.GetByID(c.Context(), bookingID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.DisputeStatus == nil || *booking.DisputeStatus != "open" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No open dispute on this booking"})
	}

	updates := map[string]interface{}{
		"dispute_status":      "resolved",
		"dispute_resolution":  req.Resolution,
		"dispute_resolved_at": time.Now(),
	}
	if req.AdminNotes != "" {
		updates["admin_notes"] = req.AdminNotes
	}
	if req.RefundAmount != nil {
		updates["refund_amount"] = *req.RefundAmount
		updates["payment_status"] = models.PaymentRefunded
	}

	updated, err := bookingRepo.Updates(c.Context(), bookingID, updates)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve dispute"})
	}
	return c.JSON(updated)
}
