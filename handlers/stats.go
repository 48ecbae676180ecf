package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/middleware"
	"github.com/shaheerasim320/event-hub/model"
)

// GetUserStats derives the caller's dashboard counters: bookings partitioned
// into upcoming vs attended by event start time, and total spent over
// confirmed bookings.
func (h *Handler) GetUserStats(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	bookings, err := h.bookings.ListByUser(c.Context(), principal.UserId)
	if err != nil {
		log.Printf("bookings listing error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	now := time.Now()
	var upcoming, attended int
	totalSpent := decimal.Zero

	for _, booking := range bookings {
		if booking.EventInfo != nil {
			if booking.EventInfo.StartTime.After(now) {
				upcoming++
			} else {
				attended++
			}
		}
		if booking.Status == model.BookingConfirmed {
			totalSpent = totalSpent.Add(decimal.NewFromFloat(booking.TotalAmount))
		}
	}

	spent, _ := totalSpent.Float64()

	return c.JSON(fiber.Map{
		"total_bookings":        len(bookings),
		"upcoming_bookings":     upcoming,
		"attended_bookings":     attended,
		"total_spent":           spent,
		"total_spent_formatted": "$" + totalSpent.StringFixed(2),
	})
}

// GetAdminStats returns the platform-wide aggregates. Admin only.
func (h *Handler) GetAdminStats(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}
	if !principal.IsAdmin() {
		return errors.RaisePermissionsError(c, "admin access required")
	}

	ctx := c.Context()

	totalEvents, err := h.events.Count(ctx)
	if err != nil {
		log.Printf("event count error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	totalBookings, err := h.bookings.Count(ctx)
	if err != nil {
		log.Printf("booking count error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	totalUsers, err := h.users.Count(ctx)
	if err != nil {
		log.Printf("user count error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}
	revenue, err := h.bookings.Revenue(ctx)
	if err != nil {
		log.Printf("revenue aggregation error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	totalRevenue := decimal.NewFromFloat(revenue)

	return c.JSON(fiber.Map{
		"total_events":            totalEvents,
		"total_bookings":          totalBookings,
		"total_users":             totalUsers,
		"total_revenue":           revenue,
		"total_revenue_formatted": "$" + totalRevenue.StringFixed(2),
	})
}
