package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/kirana/internal/config"
	"github.com/example/kirana/internal/database"
	"github.com/example/kirana/internal/fallback"
	"github.com/example/kirana/internal/routes"
	"github.com/example/kirana/internal/services"
)

// testEnv wires the full route surface against sqlite, a temp fallback queue
// and a capturing mail collaborator.
type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	queue   *fallback.Queue
	cfg     *config.Config
	mailbox chan services.Message
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	queue := fallback.NewQueue(filepath.Join(t.TempDir(), "fallback.jsonl"))

	mailbox := make(chan services.Message, 16)
	mailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg services.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err == nil {
			mailbox <- msg
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "msg-1"})
	}))
	t.Cleanup(mailSrv.Close)

	cfg := &config.Config{
		AppPort:         "0",
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		EmailAPIURL:     mailSrv.URL,
		EmailSender:     "orders@kirana.example",
		AdminEmail:      "admin@kirana.example",
		AdminAPIKey:     "admin-key",
		ShippingFee:     50,
		FreeShippingMin: 500,
	}

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	routes.Register(app, db, queue, cfg)

	return &testEnv{app: app, db: db, queue: queue, cfg: cfg, mailbox: mailbox}
}

// newBrokenMailEnv builds an env whose mail collaborator always fails.
func newBrokenMailEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	queue := fallback.NewQueue(filepath.Join(t.TempDir(), "fallback.jsonl"))

	mailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(mailSrv.Close)

	cfg := &config.Config{
		AppPort:         "0",
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		EmailAPIURL:     mailSrv.URL,
		EmailSender:     "orders@kirana.example",
		AdminEmail:      "admin@kirana.example",
		AdminAPIKey:     "admin-key",
		ShippingFee:     50,
		FreeShippingMin: 500,
	}

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	routes.Register(app, db, queue, cfg)

	return &testEnv{app: app, db: db, queue: queue, cfg: cfg, mailbox: make(chan services.Message)}
}

// testErrorHandler mirrors the server's uniform failure envelope.
func testErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
}

func (e *testEnv) closePrimary(t *testing.T) {
	t.Helper()
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func (e *testEnv) postJSON(t *testing.T, path string, payload interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return e.request(t, http.MethodPost, path, payload, headers)
}

func (e *testEnv) request(t *testing.T, method, path string, payload interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

// waitMail blocks until the mail collaborator receives a message.
func (e *testEnv) waitMail(t *testing.T) services.Message {
	t.Helper()
	select {
	case msg := <-e.mailbox:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for mail dispatch")
		return services.Message{}
	}
}

func checkoutPayload(orderID string, items []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"orderId":       orderID,
		"paymentMethod": "cod",
		"totalAmount":   0,
		"orderDate":     time.Now().Format(time.RFC3339),
		"customerInfo": map[string]string{
			"fullName": "Asha Rao",
			"email":    "shopper@example.com",
			"phone":    "9876543210",
			"address":  "12 MG Road",
			"city":     "Bengaluru",
			"state":    "Karnataka",
			"pincode":  "560001",
		},
		"items": items,
	}
}

func cartItems(price float64, quantity int) []map[string]interface{} {
	return []map[string]interface{}{
		{
			"id":            "p1",
			"name":          "Turmeric 500g",
			"price":         price,
			"quantity":      quantity,
			"category":      "spices",
			"catalogNumber": "SP-101",
			"images":        []string{"https://cdn.kirana.example/p1.jpg"},
		},
	}
}
