package auth

import (
	"errors"

	"rally-booking/logger"
	tokenModel "rally-booking/models/token"
	tokenService "rally-booking/services/token"
	"rally-booking/types"
	"rally-booking/types/authtypes"
	"rally-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController handles verification token issuance and consumption.
type AuthController struct {
	DB     *gorm.DB
	Tokens *tokenService.Service
}

// NewAuthController creates a new auth controller
func NewAuthController(db *gorm.DB, tokens *tokenService.Service) *AuthController {
	return &AuthController{DB: db, Tokens: tokens}
}

// RequestVerification issues a fresh token of the requested type and hands
// it to the notification pipeline. Earlier unused tokens of that type stop
// working.
func (ac *AuthController) RequestVerification(c *fiber.Ctx) error {
	var req authtypes.RequestVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	tokenType := tokenModel.Type(req.Type)
	if tokenType != tokenModel.TypeEmailVerification && tokenType != tokenModel.TypePasswordReset {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Unknown verification type",
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

	row, err := ac.Tokens.Issue(c.Context(), userInfo.ID, tokenType)
	if err != nil {
		logger.Error("Failed to issue verification token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to issue verification token",
			Status:  fiber.StatusInternalServerError,
		})
	}

	// The token value travels only through the notification channel.
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "Verification token issued",
		Status:  fiber.StatusCreated,
		Data: fiber.Map{
			"type":       row.Type,
			"expires_at": row.ExpiresAt,
		},
	})
}

// ConfirmVerification consumes a token. Email verification flips the
// user's flag; password reset only burns the token here, the credential
// change lives with the identity provider.
func (ac *AuthController) ConfirmVerification(c *fiber.Ctx) error {
	var req authtypes.ConfirmVerificationRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "token is required",
			Status:  fiber.StatusBadRequest,
		})
	}

	tokenType := tokenModel.Type(req.Type)
	if tokenType == "" {
		tokenType = tokenModel.TypeEmailVerification
	}

	row, err := ac.Tokens.Consume(c.Context(), req.Token, tokenType)
	if err != nil {
		switch {
		case errors.Is(err, tokenService.ErrTokenNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Message: "Verification token not found",
				Status:  fiber.StatusNotFound,
			})
		case errors.Is(err, tokenService.ErrTokenExpired), errors.Is(err, tokenService.ErrTokenUsed):
			return c.Status(fiber.StatusGone).JSON(types.ApiResponse{
				Message: "Verification token no longer valid",
				Status:  fiber.StatusGone,
			})
		default:
			logger.Error("Failed to consume verification token", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Failed to verify token",
				Status:  fiber.StatusInternalServerError,
			})
		}
	}

	if row.Type == tokenModel.TypeEmailVerification {
		err := ac.DB.Table("users").Where("id = ?", row.UserID).
			Update("email_verified", true).Error
		if err != nil {
			logger.Error("Failed to mark email verified", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Message: "Failed to verify token",
				Status:  fiber.StatusInternalServerError,
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Verification confirmed",
		Status:  fiber.StatusOK,
	})
}
