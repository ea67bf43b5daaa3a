package garage

import (
	"time"

	"rally-booking/logger"
	"rally-booking/services/garage"
	"rally-booking/types"
	"rally-booking/utils"

	"github.com/gofiber/fiber/v2"
)

// GarageController serves the authenticated user's active-vehicle view.
type GarageController struct {
	Garage *garage.Service
}

// NewGarageController creates a new garage controller
func NewGarageController(svc *garage.Service) *GarageController {
	return &GarageController{Garage: svc}
}

// Index lists everything the caller can drive right now.
func (gc *GarageController) Index(c *fiber.Ctx) error {
	userInfo, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
		})
	}

	view, err := gc.Garage.View(c.Context(), userInfo.ID, time.Now())
	if err != nil {
		logger.Error("Failed to build garage view", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to load garage",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Garage loaded",
		Status:  fiber.StatusOK,
		Data:    view,
	})
}
