package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func accepted(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func forbidden(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func badGateway(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": msg})
}

func internalError(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// mapError answers with the status of err's category. Every service error
// wraps one of the apperr categories.
func mapError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, apperr.ErrInvalidState):
		return conflict(c, err.Error())
	case errors.Is(err, apperr.ErrExternalService):
		slog.WarnContext(c.Context(), "upstream failure", "path", c.Path(), "error", err)
		return badGateway(c, "an upstream service failed, try again later")
	default:
		slog.ErrorContext(c.Context(), "request failed", "path", c.Path(), "error", err)
		return internalError(c)
	}
}
