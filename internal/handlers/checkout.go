package handlers

import (
	"log"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/kirana/internal/config"
	"github.com/example/kirana/internal/customers"
	"github.com/example/kirana/internal/middleware"
	"github.com/example/kirana/internal/models"
	"github.com/example/kirana/internal/orders"
	"github.com/example/kirana/internal/validation"
)

// Notifier dispatches order emails downstream of persistence. It is an
// interface so a retry queue can replace the direct mailer without touching
// the order repository's contract.
type Notifier interface {
	DispatchOrderPlaced(order models.Order, items []models.OrderItem)
}

// CheckoutHandler is the order-intake pipeline: validate, derive totals,
// touch the profile, persist with fallback, then notify.
type CheckoutHandler struct {
	orders    *orders.Repository
	customers *customers.Repository
	notifier  Notifier
	validate  *validatorv10.Validate
	cfg       *config.Config
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(ordersRepo *orders.Repository, customersRepo *customers.Repository, notifier Notifier, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		orders:    ordersRepo,
		customers: customersRepo,
		notifier:  notifier,
		validate:  validation.New(),
		cfg:       cfg,
	}
}

// Checkout accepts an order submission. Validation and identity failures are
// fatal to the request; a primary-store outage is absorbed by the fallback
// queue and the caller cannot tell which path was taken.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return err
	}

	// Derived money fields are computed here; the client-sent total is not
	// trusted for persistence.
	var subtotal float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		lineTotal := it.Price * float64(it.Quantity)
		subtotal += lineTotal

		imageRef := ""
		if len(it.Images) > 0 {
			imageRef = it.Images[0]
		}

		items = append(items, models.OrderItem{
			ProductID:     it.ID,
			ProductName:   it.Name,
			Category:      it.Category,
			CatalogNumber: it.CatalogNumber,
			Quantity:      it.Quantity,
			UnitPrice:     it.Price,
			LineTotal:     lineTotal,
			ImageRef:      imageRef,
		})
	}

	shippingFee := h.cfg.ShippingFee
	if subtotal >= h.cfg.FreeShippingMin {
		shippingFee = 0
	}

	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := models.Order{
		OrderID:         req.OrderID,
		CustomerName:    req.CustomerInfo.FullName,
		CustomerEmail:   req.CustomerInfo.Email,
		CustomerPhone:   req.CustomerInfo.Phone,
		ShippingAddress: req.CustomerInfo.Address,
		ShippingCity:    req.CustomerInfo.City,
		ShippingState:   req.CustomerInfo.State,
		ShippingPincode: req.CustomerInfo.Pincode,
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		TotalAmount:     subtotal + shippingFee,
		PaymentMethod:   req.PaymentMethod,
		Status:          models.StatusConfirmed,
		OrderDate:       orderDate,
	}

	// Signed-in shoppers get their profile touched. There is no fallback for
	// profile writes, so a store failure here fails the request.
	if email, ok := middleware.GetCurrentEmail(c); ok {
		profile := models.CustomerProfile{
			Email:        email,
			FullName:     req.CustomerInfo.FullName,
			Mobile:       req.CustomerInfo.Phone,
			SignupMethod: "checkout",
		}
		if _, err := h.customers.Upsert(profile); err != nil {
			log.Printf("[Checkout] profile upsert failed for %s: %v", email, err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "profile store unavailable")
		}
	}

	location, persisted, err := h.orders.Submit(c.Context(), order, items)
	if err != nil {
		log.Printf("[Checkout] order %s failed on every path: %v", req.OrderID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "order could not be accepted")
	}

	log.Printf("[Checkout] order %s accepted (%s)", persisted.OrderID, location)

	go h.notifier.DispatchOrderPlaced(*persisted, persisted.Items)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"order_id": persisted.OrderID,
		"message":  "order placed successfully",
	})
}
