package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kirana/internal/customers"
	"github.com/example/kirana/internal/middleware"
)

// ProfileHandler serves the authenticated shopper's profile.
type ProfileHandler struct {
	customers *customers.Repository
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(customersRepo *customers.Repository) *ProfileHandler {
	return &ProfileHandler{customers: customersRepo}
}

// GetProfile returns the authenticated shopper's profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	email, ok := middleware.GetCurrentEmail(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.customers.Get(email)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"email":          profile.Email,
			"full_name":      profile.FullName,
			"mobile":         profile.Mobile,
			"signup_date":    profile.SignupDate,
			"email_verified": profile.EmailVerified,
			"signup_method":  profile.SignupMethod,
			"login_count":    profile.LoginCount,
			"last_login_at":  profile.LastLoginAt,
		},
	})
}
