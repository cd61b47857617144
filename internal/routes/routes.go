package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/kirana/internal/config"
	"github.com/example/kirana/internal/customers"
	"github.com/example/kirana/internal/fallback"
	"github.com/example/kirana/internal/handlers"
	"github.com/example/kirana/internal/middleware"
	"github.com/example/kirana/internal/orders"
	"github.com/example/kirana/internal/otp"
	"github.com/example/kirana/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, queue *fallback.Queue, cfg *config.Config) {
	mailer := services.NewMailer(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailSender)
	notifier := services.NewNotifier(mailer, cfg.AdminEmail)

	otpStore := otp.NewStore(db)
	customersRepo := customers.NewRepository(db)
	ordersRepo := orders.NewRepository(db, queue)

	otpHandler := handlers.NewOTPHandler(otpStore, customersRepo, mailer, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(ordersRepo, customersRepo, notifier, cfg)
	ordersHandler := handlers.NewOrdersHandler(ordersRepo)
	profileHandler := handlers.NewProfileHandler(customersRepo)

	api := app.Group("/api")

	// Identity
	auth := api.Group("/auth")
	auth.Post("/otp/request", otpHandler.RequestCode)
	auth.Post("/otp/verify", otpHandler.VerifyCode)

	// Checkout accepts guests and signed-in shoppers alike.
	api.Post("/checkout", middleware.OptionalAuth(cfg), checkoutHandler.Checkout)

	// Back office
	admin := api.Group("/admin", middleware.AdminMiddleware(cfg.AdminAPIKey))
	admin.Get("/orders/recent", ordersHandler.ListRecent)
	admin.Patch("/orders/:orderId/status", ordersHandler.UpdateStatus)

	// Shopper routes; keep this group last so its auth guard does not shadow
	// the public and admin surfaces.
	protected := api.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/orders", ordersHandler.ListOrders)
	protected.Get("/orders/:orderId", ordersHandler.GetOrder)
	protected.Get("/profile", profileHandler.GetProfile)
}
