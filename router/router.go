package router

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaheerasim320/event-hub/handlers"
	"github.com/shaheerasim320/event-hub/middleware"
)

func SetupRoutes(app *fiber.App, h *handlers.Handler, jwtSecret string) {
	api := app.Group("/api", logger.New(), recover.New())
	authorized := middleware.Authorize(jwtSecret)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)

	// Events: static paths before the :eventId wildcard
	events := api.Group("/events")
	events.Get("/", h.GetEvents)
	events.Post("/", authorized, h.CreateEvent)
	events.Get("/featured", h.GetFeaturedEvents)
	events.Get("/categories", h.GetCategories)
	events.Get("/user", authorized, h.GetMyEvents)
	events.Get("/:eventId", h.GetEvent)
	events.Put("/:eventId", authorized, h.UpdateEvent)
	events.Delete("/:eventId", authorized, h.DeleteEvent)

	// Checkout + payment confirmation
	api.Post("/checkout", authorized, h.CreateCheckoutSession)
	api.Post("/webhooks/stripe", h.StripeWebhook)

	// Bookings
	bookings := api.Group("/bookings", authorized)
	bookings.Get("/user", h.GetMyBookings)
	bookings.Patch("/:bookingId/cancel", h.CancelBooking)

	// Stats + admin bootstrap
	api.Get("/dashboard/user-stats", authorized, h.GetUserStats)
	api.Get("/admin/stats", authorized, h.GetAdminStats)
	api.Post("/admin/create-admin", h.CreateAdmin)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
