package booking

import (
	"errors"
	"fmt"
	"strconv"

	"rally-booking/apperrors"
	gateway "rally-booking/httpServices/payment"
	"rally-booking/logger"
	paymentModel "rally-booking/models/payment"
	"rally-booking/models/vehicle"
	"rally-booking/services/cascade"
	"rally-booking/services/ledger"
	"rally-booking/types"
	bookingTypes "rally-booking/types/booking"
	"rally-booking/types/rallytypes"
	"rally-booking/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingController handles purchase and rental lifecycle HTTP requests.
type BookingController struct {
	DB       *gorm.DB
	Ledger   *ledger.Service
	Cascade  *cascade.Service
	Wallet   gateway.Gateway
	Intl     gateway.Gateway
	Validate *validator.Validate
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, l *ledger.Service, cs *cascade.Service, wallet, intl gateway.Gateway) *BookingController {
	return &BookingController{
		DB:       db,
		Ledger:   l,
		Cascade:  cs,
		Wallet:   wallet,
		Intl:     intl,
		Validate: validator.New(),
	}
}

// StorePurchase creates a pending purchase and its payment intent.
func (bc *BookingController) StorePurchase(c *fiber.Ctx) error {
	var req bookingTypes.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse purchase request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := bc.Validate.Struct(req); err != nil {
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

	price, err := bc.vehiclePrice(req.VehicleID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Vehicle not found",
			Status:  fiber.StatusNotFound,
		})
	}

	row, err := bc.Ledger.CreatePendingPurchase(c.Context(), userInfo.ID, req.VehicleID, price,
		paymentModel.Currency(req.Currency), paymentModel.Method(req.Method))
	if err != nil {
		logger.Error("Failed to create pending purchase", err)
		return apperrors.Respond(c, err, "Failed to create purchase")
	}

	gw := gateway.ForMethod(paymentModel.Method(req.Method), bc.Wallet, bc.Intl)
	intent, err := gw.CreateIntent(c.Context(), gateway.IntentRequest{
		Amount:      row.Amount,
		Currency:    row.Currency,
		Reference:   fmt.Sprintf("purchase-%d", row.ID),
		Description: "Rally vehicle purchase",
	})
	if err != nil {
		// The row stays pending; the client may retry the intent later.
		logger.Error("Payment intent creation failed for purchase", err)
		return apperrors.Respond(c, err, "Payment provider unavailable")
	}

	if err := bc.Ledger.AttachPurchaseExternalID(c.Context(), row.ID, intent.ExternalID); err != nil {
		logger.Error("Failed to store external transaction id on purchase", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to record payment intent",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logger.Success(fmt.Sprintf("Purchase %d pending, intent %s created", row.ID, intent.ExternalID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Purchase created, awaiting payment",
		Status:  fiber.StatusCreated,
		Data: bookingTypes.IntentResponse{
			Grant:      row,
			PaymentURL: intent.PaymentURL,
			ExternalID: intent.ExternalID,
		},
	})
}

// StoreRental creates a pending rental and its payment intent.
func (bc *BookingController) StoreRental(c *fiber.Ctx) error {
	var req bookingTypes.CreateRentalRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse rental request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if err := bc.Validate.Struct(req); err != nil {
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

	price, err := bc.rentalPrice(req.VehicleID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Vehicle not found",
			Status:  fiber.StatusNotFound,
		})
	}

	row, err := bc.Ledger.CreatePendingRental(c.Context(), userInfo.ID, req.VehicleID, req.RallyID, price,
		paymentModel.Currency(req.Currency), paymentModel.Method(req.Method))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rally or vehicle not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error("Failed to create pending rental", err)
		return apperrors.Respond(c, err, "Failed to create rental")
	}

	gw := gateway.ForMethod(paymentModel.Method(req.Method), bc.Wallet, bc.Intl)
	intent, err := gw.CreateIntent(c.Context(), gateway.IntentRequest{
		Amount:      row.Amount,
		Currency:    row.Currency,
		Reference:   fmt.Sprintf("rental-%d", row.ID),
		Description: "Rally vehicle rental",
	})
	if err != nil {
		logger.Error("Payment intent creation failed for rental", err)
		return apperrors.Respond(c, err, "Payment provider unavailable")
	}

	if err := bc.Ledger.AttachRentalExternalID(c.Context(), row.ID, intent.ExternalID); err != nil {
		logger.Error("Failed to store external transaction id on rental", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to record payment intent",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logger.Success(fmt.Sprintf("Rental %d pending, intent %s created", row.ID, intent.ExternalID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Rental created, awaiting payment",
		Status:  fiber.StatusCreated,
		Data: bookingTypes.IntentResponse{
			Grant:      row,
			PaymentURL: intent.PaymentURL,
			ExternalID: intent.ExternalID,
		},
	})
}

// ApprovePurchase is the admin override for a settled payment whose
// webhook never arrived.
func (bc *BookingController) ApprovePurchase(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	var req bookingTypes.ApproveRequest
	if err := c.BodyParser(&req); err != nil || req.ExternalTransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "external_transaction_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := bc.Ledger.ApprovePurchase(c.Context(), id, req.ExternalTransactionID)
	if err != nil {
		logger.Error(fmt.Sprintf("Admin approval failed for purchase %d", id), err)
		return apperrors.Respond(c, err, "Failed to approve purchase")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Purchase approved",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// RejectPurchase is the admin rejection; idempotent on already-rejected rows.
func (bc *BookingController) RejectPurchase(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := bc.Ledger.RejectPurchase(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Purchase not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return apperrors.Respond(c, err, "Failed to reject purchase")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Purchase rejected",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// DestroyPurchase hard-deletes a non-approved purchase.
func (bc *BookingController) DestroyPurchase(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := bc.Ledger.DeletePurchase(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Purchase not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return apperrors.Respond(c, err, "Failed to delete purchase")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Purchase deleted",
		Status:  fiber.StatusOK,
	})
}

// ApproveRental is the rental counterpart of ApprovePurchase.
func (bc *BookingController) ApproveRental(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	var req bookingTypes.ApproveRequest
	if err := c.BodyParser(&req); err != nil || req.ExternalTransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "external_transaction_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := bc.Ledger.ApproveRental(c.Context(), id, req.ExternalTransactionID)
	if err != nil {
		logger.Error(fmt.Sprintf("Admin approval failed for rental %d", id), err)
		return apperrors.Respond(c, err, "Failed to approve rental")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rental approved",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// RejectRental is the admin rejection; idempotent on already-rejected rows.
func (bc *BookingController) RejectRental(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := bc.Ledger.RejectRental(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rental not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return apperrors.Respond(c, err, "Failed to reject rental")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rental rejected",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

// DestroyRental hard-deletes a non-approved rental.
func (bc *BookingController) DestroyRental(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := bc.Ledger.DeleteRental(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rental not found",
				Status:  fiber.StatusNotFound,
			})
		}
		return apperrors.Respond(c, err, "Failed to delete rental")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rental deleted",
		Status:  fiber.StatusOK,
	})
}

// MoveRental re-keys a rental to another rally (admin).
func (bc *BookingController) MoveRental(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid id",
			Status:  fiber.StatusBadRequest,
		})
	}

	var req rallytypes.MoveRentalRequest
	if err := c.BodyParser(&req); err != nil || req.RallyID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "rally_id is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	row, err := bc.Cascade.MoveRental(c.Context(), id, req.RallyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Rental or rally not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error(fmt.Sprintf("Failed to move rental %d", id), err)
		return apperrors.Respond(c, err, "Failed to move rental")
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Rental moved",
		Status:  fiber.StatusOK,
		Data:    row,
	})
}

func (bc *BookingController) vehiclePrice(vehicleID uint) (decimal.Decimal, error) {
	var v vehicle.Vehicle
	if err := bc.DB.First(&v, vehicleID).Error; err != nil {
		return decimal.Zero, err
	}
	return v.Price, nil
}

// rentalPrice charges a tenth of the list price for a single-event rental.
func (bc *BookingController) rentalPrice(vehicleID uint) (decimal.Decimal, error) {
	price, err := bc.vehiclePrice(vehicleID)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Div(decimal.NewFromInt(10)).Round(2), nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
