package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kirana/internal/models"
	"github.com/example/kirana/internal/utils"
)

func TestCheckoutChargesShippingBelowThreshold(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-1", cartItems(225, 2)), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.Equal(t, "ORD-1", body["order_id"])

	var order models.Order
	require.NoError(t, env.db.First(&order, "order_id = ?", "ORD-1").Error)
	assert.Equal(t, float64(450), order.Subtotal)
	assert.Equal(t, float64(50), order.ShippingFee)
	assert.Equal(t, float64(500), order.TotalAmount)
	assert.Equal(t, models.StatusConfirmed, order.Status)
}

func TestCheckoutFreeShippingAtThreshold(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-2", cartItems(250, 2)), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	require.NoError(t, env.db.First(&order, "order_id = ?", "ORD-2").Error)
	assert.Equal(t, float64(500), order.Subtotal)
	assert.Equal(t, float64(0), order.ShippingFee)
	assert.Equal(t, float64(500), order.TotalAmount)
}

func TestCheckoutValidationRejectsBeforeSideEffects(t *testing.T) {
	env := newTestEnv(t)

	payload := checkoutPayload("ORD-3", cartItems(100, 1))
	payload["customerInfo"].(map[string]string)["email"] = ""

	resp, body := env.postJSON(t, "/api/checkout", payload, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.NotEmpty(t, body["error"])

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count, "nothing may be written on validation failure")

	queued, err := env.queue.All()
	require.NoError(t, err)
	require.Empty(t, queued)
}

func TestCheckoutResubmissionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	payload := checkoutPayload("ORD-4", cartItems(225, 2))
	resp, _ := env.postJSON(t, "/api/checkout", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.postJSON(t, "/api/checkout", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"])

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCheckoutSucceedsDuringStoreOutage(t *testing.T) {
	env := newTestEnv(t)
	env.closePrimary(t)

	resp, body := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-5", cartItems(225, 2)), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"], "outage must be invisible to the caller")

	rec, err := env.queue.Find("ORD-5")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, float64(450), rec.Order.Subtotal)
	assert.Equal(t, float64(50), rec.Order.ShippingFee)
	assert.Equal(t, float64(500), rec.Order.TotalAmount)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Turmeric 500g", rec.Items[0].ProductName)

	// Notifications still go out for fallback-persisted orders.
	confirmation := env.waitMail(t)
	assert.Contains(t, confirmation.Subject, "ORD-5")
	admin := env.waitMail(t)
	assert.Equal(t, []string{env.cfg.AdminEmail}, admin.Recipients)
}

func TestCheckoutNotificationFailureKeepsSuccess(t *testing.T) {
	env := newBrokenMailEnv(t)

	resp, body := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-6", cartItems(225, 2)), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["success"], "notification failure must never surface")

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCheckoutSignedInShopperTouchesProfile(t *testing.T) {
	env := newTestEnv(t)

	token, err := utils.GenerateToken(env.cfg.JWTSecret, "shopper@example.com", env.cfg.TokenExpires)
	require.NoError(t, err)

	headers := map[string]string{"Authorization": "Bearer " + token}
	resp, _ := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-7", cartItems(225, 2)), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var profile models.CustomerProfile
	require.NoError(t, env.db.First(&profile, "email = ?", "shopper@example.com").Error)
	assert.Equal(t, int64(1), profile.LoginCount)
	assert.Equal(t, "Asha Rao", profile.FullName)

	// A second checkout counts as another touch.
	resp, _ = env.postJSON(t, "/api/checkout", checkoutPayload("ORD-8", cartItems(225, 2)), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, env.db.First(&profile, "email = ?", "shopper@example.com").Error)
	assert.Equal(t, int64(2), profile.LoginCount)
}

func TestGuestCheckoutSkipsProfile(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.postJSON(t, "/api/checkout", checkoutPayload("ORD-9", cartItems(225, 2)), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.CustomerProfile{}).Count(&count).Error)
	require.Zero(t, count)
}
