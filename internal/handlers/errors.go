package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jobscout/internal/services"
)

// statusForPipelineError maps the typed pipeline errors to response codes.
// User-correctable failures are 4xx; remote-dependency failures are 5xx so
// the caller can distinguish "fix your input" from "try again later".
func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, services.ErrExtractionFailed),
		errors.Is(err, services.ErrEmptyResume):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInsufficientProfile),
		errors.Is(err, services.ErrSearchRejected):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInferenceTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, services.ErrInferenceUnavailable),
		errors.Is(err, services.ErrInferenceBadResponse),
		errors.Is(err, services.ErrProfileBuildFailed),
		errors.Is(err, services.ErrSearchUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func pipelineErrorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusForPipelineError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
