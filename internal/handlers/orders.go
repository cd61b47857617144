package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kirana/internal/middleware"
	"github.com/example/kirana/internal/orders"
	"github.com/example/kirana/internal/utils"
)

// OrdersHandler serves order lookup and back-office endpoints.
type OrdersHandler struct {
	orders *orders.Repository
}

// NewOrdersHandler constructs an OrdersHandler.
func NewOrdersHandler(ordersRepo *orders.Repository) *OrdersHandler {
	return &OrdersHandler{orders: ordersRepo}
}

// ListOrders returns the authenticated shopper's orders, newest first.
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	email, ok := middleware.GetCurrentEmail(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	list, err := h.orders.ListForCustomer(c.Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": list})
}

// GetOrder returns a single order belonging to the authenticated shopper.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	email, ok := middleware.GetCurrentEmail(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	order, err := h.orders.Get(c.Context(), c.Params("orderId"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if order.CustomerEmail != email {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// ListRecent returns the newest orders for the back office, bounded by limit
// and optionally by a since timestamp (RFC 3339).
func (h *OrdersHandler) ListRecent(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid since timestamp")
		}
		since = &parsed
	}

	list, err := h.orders.ListRecent(c.Context(), pg.Limit, pg.Offset, since)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": list})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order forward through its lifecycle; backward
// transitions are rejected.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	err := h.orders.UpdateStatus(c.Context(), c.Params("orderId"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, orders.ErrInvalidTransition):
			return fiber.NewError(fiber.StatusConflict, "status cannot move backward")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "status updated"})
}
