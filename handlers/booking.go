package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/middleware"
	"github.com/shaheerasim320/event-hub/model"
)

// GetMyBookings returns the caller's bookings, newest first, joined with
// event summaries.
func (h *Handler) GetMyBookings(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	bookings, err := h.bookings.ListByUser(c.Context(), principal.UserId)
	if err != nil {
		log.Printf("bookings listing error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking transitions a confirmed+paid booking to cancelled/refunded
// and returns its seats to the event's inventory.
func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	bookingId, err := primitive.ObjectIDFromHex(c.Params("bookingId"))
	if err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid booking id %v", c.Params("bookingId")))
	}

	booking, err := h.bookings.GetById(c.Context(), bookingId)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("booking %v not found", c.Params("bookingId")))
		}
		log.Printf("booking lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	if !principal.CanAccessBooking(booking) {
		return errors.RaisePermissionsError(c, "not authorized to cancel this booking")
	}

	req := new(cancelRequest)
	_ = c.BodyParser(req)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "cancelled by user"
	}

	cancelled, err := h.bookings.Cancel(c.Context(), bookingId, reason)
	if err != nil {
		if isErr(err, model.ErrNotCancellable) {
			return errors.RaiseBadRequestError(c, "only confirmed and paid bookings can be cancelled")
		}
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("booking %v not found", c.Params("bookingId")))
		}
		log.Printf("booking cancellation error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	h.metrics.CancellationsTotal.Inc()

	return c.JSON(cancelled)
}
