package apperrors

import (
	"errors"

	"rally-booking/types"

	"github.com/gofiber/fiber/v2"
)

// Respond writes the uniform error envelope for err. Typed errors carry
// their kind and client-safe message; anything else becomes a 500 with the
// fallback message and the detail stays in the server log.
func Respond(c *fiber.Ctx, err error, fallback string) error {
	var e *Error
	if errors.As(err, &e) {
		status := HTTPStatus(e.Kind)
		return c.Status(status).JSON(types.ApiResponse{
			Message: e.Message,
			Status:  status,
			Error:   string(e.Kind),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
		Message: fallback,
		Status:  fiber.StatusInternalServerError,
	})
}
