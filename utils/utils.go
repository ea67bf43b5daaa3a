package utils

import (
	"errors"
	"fmt"

	"rally-booking/database"
	"rally-booking/models/user"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// ExtractUUIDFromContext reads the caller's uuid from the claims the auth
// middleware stored on the request.
func ExtractUUIDFromContext(c *fiber.Ctx) (string, error) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return "", errors.New("no authenticated user on request")
	}

	uid, ok := claims["uuid"].(string)
	if !ok || uid == "" {
		return "", errors.New("uuid not found in token")
	}
	return uid, nil
}

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := database.DB.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// CurrentUser resolves the authenticated user row for a request.
func CurrentUser(c *fiber.Ctx) (*user.User, error) {
	uid, err := ExtractUUIDFromContext(c)
	if err != nil {
		return nil, err
	}
	return GetUserByUUID(uid)
}
