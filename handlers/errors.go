package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jmwangi/tutorlink/services"
)

// respondServiceError maps the typed domain errors onto HTTP statuses so no
// operation failure ever surfaces as an unhandled 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	var conflict *services.ConflictError
	var transition *services.InvalidStateTransitionError
	var validation *services.ValidationError
	var authz *services.AuthorizationError
	var notFound *services.NotFoundError

	switch {
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &authz):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("🔥 Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}
