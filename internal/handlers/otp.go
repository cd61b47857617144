package handlers

import (
	"errors"
	"fmt"
	"log"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/kirana/internal/config"
	"github.com/example/kirana/internal/customers"
	"github.com/example/kirana/internal/models"
	"github.com/example/kirana/internal/otp"
	"github.com/example/kirana/internal/services"
	"github.com/example/kirana/internal/utils"
	"github.com/example/kirana/internal/validation"
)

// OTPHandler manages passcode issuance and verification endpoints.
type OTPHandler struct {
	store     *otp.Store
	customers *customers.Repository
	mailer    *services.Mailer
	validate  *validatorv10.Validate
	cfg       *config.Config
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(store *otp.Store, customersRepo *customers.Repository, mailer *services.Mailer, cfg *config.Config) *OTPHandler {
	return &OTPHandler{
		store:     store,
		customers: customersRepo,
		mailer:    mailer,
		validate:  validation.New(),
		cfg:       cfg,
	}
}

// RequestCode issues a fresh challenge and emails the code. Any prior live
// code for the same (email, purpose) stops working the moment this returns.
func (h *OTPHandler) RequestCode(c *fiber.Ctx) error {
	var req validation.OTPRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return err
	}

	challenge, err := h.store.Issue(req.Email, req.Purpose)
	if err != nil {
		log.Printf("[OTP] issue failed for %s (%s): %v", req.Email, req.Purpose, err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not issue verification code")
	}

	// Delivery is best-effort; the hash is already at rest so the request
	// does not wait on the mail channel.
	code := challenge.Code
	go func() {
		_, err := h.mailer.Send(services.Message{
			Recipients: []string{req.Email},
			Subject:    "Your verification code",
			HTMLBody:   fmt.Sprintf("<p>Your verification code is <b>%s</b>. It expires in 10 minutes.</p>", code),
			TextBody:   fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code),
		})
		if err != nil {
			log.Printf("[OTP] code delivery to %s failed: %v", req.Email, err)
		}
	}()

	return c.JSON(fiber.Map{"success": true, "issued": true})
}

// VerifyCode checks a submitted code. All identity failures look the same to
// the caller; the distinction is logged internally. Success consumes the code,
// records the login, and mints a session token.
func (h *OTPHandler) VerifyCode(c *fiber.Ctx) error {
	var req validation.OTPVerifyRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return err
	}

	if err := h.store.Verify(req.Email, req.Purpose, req.Code); err != nil {
		if errors.Is(err, otp.ErrNotFound) || errors.Is(err, otp.ErrExpired) || errors.Is(err, otp.ErrMismatch) {
			log.Printf("[OTP] verification failed for %s (%s): %v", req.Email, req.Purpose, err)
			h.customers.TrackLoginActivity(req.Email, "email_otp", false, err.Error())
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired code")
		}
		log.Printf("[OTP] verification error for %s: %v", req.Email, err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not verify code")
	}

	if req.Purpose == models.PurposeSignup {
		// Signup verification doubles as the first login.
		profile := models.CustomerProfile{
			Email:         req.Email,
			EmailVerified: true,
			SignupMethod:  "email_otp",
		}
		if _, err := h.customers.Upsert(profile); err != nil {
			log.Printf("[OTP] profile upsert failed for %s: %v", req.Email, err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "profile store unavailable")
		}
	} else if err := h.customers.MarkVerified(req.Email); err != nil {
		log.Printf("[OTP] mark verified failed for %s: %v", req.Email, err)
	}

	h.customers.TrackLoginActivity(req.Email, "email_otp", true, "")

	token, err := utils.GenerateToken(h.cfg.JWTSecret, req.Email, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
		"token":    token,
	})
}
