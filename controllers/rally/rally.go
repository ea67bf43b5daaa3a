package rally

import (
	"errors"
	"fmt"
	"strconv"

	"rally-booking/apperrors"
	"rally-booking/logger"
	categoryModel "rally-booking/models/category"
	rallyModel "rally-booking/models/rally"
	"rally-booking/services/cascade"
	"rally-booking/types"
	"rally-booking/types/rallytypes"
	"rally-booking/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RallyController handles rally CRUD plus the lifecycle cascades.
type RallyController struct {
	DB       *gorm.DB
	Cascade  *cascade.Service
	Validate *validator.Validate
}

// NewRallyController creates a new rally controller
func NewRallyController(db *gorm.DB, cs *cascade.Service) *RallyController {
	return &RallyController{
		DB:       db,
		Cascade:  cs,
		Validate: validator.New(),
	}
}

// Store creates a rally. OriginalDate is snapshotted from the first
// scheduled date and never changes afterwards.
func (rc *RallyController) Store(c *fiber.Ctx) error {
	var req rallytypes.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := rc.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	userInfo, err := utils.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "User not found",
			Status:  fiber.StatusUnauthorized,
		})
	}

	var categories []categoryModel.Category
	if len(req.CategoryIDs) > 0 {
		if err := rc.DB.Where("id IN ?", req.CategoryIDs).Find(&categories).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Database error",
				Status:  fiber.StatusInternalServerError,
			})
		}
		if len(categories) != len(req.CategoryIDs) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Message: "Unknown category id",
				Status:  fiber.StatusBadRequest,
			})
		}
	}

	row := rallyModel.Rally{
		Championship:      req.Championship,
		Name:              req.Name,
		ScheduledDate:     req.ScheduledDate,
		OriginalDate:      req.ScheduledDate,
		CreatorID:         userInfo.ID,
		AllowedCategories: categories,
	}
	if err := rc.DB.Create(&row).Error; err != nil {
		logger.Error("Failed to create rally", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to create rally",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logger.Success(fmt.Sprintf("Rally %d created: %s", row.ID, row.Name))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Rally created",
		Status:  fiber.StatusCreated,
		Data:    row,
	})
}

// Index lists rallies, newest event first.
func (rc *RallyController) Index(c *fiber.Ctx) error {
	var rows []rallyModel.Rally
	err := rc.DB.Preload("AllowedCategories").
		Order("scheduled_date DESC").
		Find(&rows).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rallies loaded",
		Status:  fiber.StatusOK,
		Data:    rows,
	})
}

// Show returns one rally with its category restrictions.
func (rc *RallyController) Show(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	var row rallyModel.Rally
	if err := rc.DB.Preload("AllowedCategories").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rally not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rally loaded",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// Reschedule moves the rally date and cascades the new window onto its
// live rentals.
func (rc *RallyController) Reschedule(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	var req rallytypes.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := rc.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := rc.Cascade.Reschedule(c.Context(), id, req.ScheduledDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rally not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error(fmt.Sprintf("Failed to reschedule rally %d", id), err)
		return apperrors.Respond(c, err, "Failed to reschedule rally")
	}

	logger.Success(fmt.Sprintf("Rally %d rescheduled to %s", id, req.ScheduledDate.Format("2006-01-02")))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rally rescheduled",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// Destroy cancels the rally: live rentals transition to event_cancelled
// and the row is removed unless participation history pins it.
func (rc *RallyController) Destroy(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	result, err := rc.Cascade.Cancel(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rally not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error(fmt.Sprintf("Failed to cancel rally %d", id), err)
		return apperrors.Respond(c, err, "Failed to cancel rally")
	}

	logger.Success(fmt.Sprintf("Rally %d cancelled, %d rentals affected", id, result.RentalsCancelled))
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rally cancelled",
		Status:  fiber.StatusOK,
		Data:    result,
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
