package handlers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/middleware"
	"github.com/shaheerasim320/event-hub/model"
	"github.com/shaheerasim320/event-hub/payment"
)

type checkoutRequest struct {
	EventId  string `json:"event_id"`
	Quantity uint   `json:"quantity"`
}

// CreateCheckoutSession validates availability and hands the caller a hosted
// payment session. The availability check here is advisory only, a
// point-in-time read; the binding check happens at webhook confirmation via
// the conditional seat update. No booking is confirmed and no seat consumed
// here, only a pending ledger row keyed by the session id.
func (h *Handler) CreateCheckoutSession(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return errors.RaiseUnauthenticatedError(c, "")
	}

	req := new(checkoutRequest)
	if err := c.BodyParser(req); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable checkout parameters: %v", err))
	}
	if req.EventId == "" || req.Quantity < 1 {
		return errors.RaiseBadRequestError(c, "event id and a quantity of at least 1 are required")
	}

	eventId, err := primitive.ObjectIDFromHex(req.EventId)
	if err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid event id %v", req.EventId))
	}

	event, err := h.events.GetById(c.Context(), eventId)
	if err != nil {
		if isErr(err, model.ErrNotFound) {
			return errors.RaiseNotFoundError(c, fmt.Sprintf("event %v not found", req.EventId))
		}
		log.Printf("event lookup error: %v", err)
		return errors.RaiseInternalServerError(c, "database error")
	}

	if uint(event.AvailableSeats) < req.Quantity {
		h.metrics.CheckoutSessionsTotal.WithLabelValues("rejected").Inc()
		return errors.RaiseBadRequestError(c,
			fmt.Sprintf("only %v tickets left for this event", event.AvailableSeats))
	}

	price := decimal.NewFromFloat(event.Price)
	unitAmount := price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	totalAmount, _ := price.Mul(decimal.NewFromInt(int64(req.Quantity))).Float64()

	session, err := h.payments.CreateCheckoutSession(payment.CheckoutParams{
		EventId:    event.Id.Hex(),
		EventTitle: event.Title,
		UserId:     principal.UserId.Hex(),
		Quantity:   req.Quantity,
		UnitAmount: unitAmount,
		Currency:   event.Currency,
	})
	if err != nil {
		h.metrics.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		log.Printf("checkout session creation error: %v", err)
		return errors.RaiseInternalServerError(c, "payment provider error")
	}

	now := time.Now().UTC()
	pending := &model.Booking{
		Id:              primitive.NewObjectID(),
		User:            principal.UserId,
		Event:           event.Id,
		NumberOfTickets: req.Quantity,
		TotalAmount:     totalAmount,
		Currency:        event.Currency,
		Status:          model.BookingPending,
		PaymentStatus:   model.PaymentPending,
		StripeSessionId: session.Id,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.bookings.InsertPending(c.Context(), pending); err != nil {
		// The session already exists provider-side; the webhook can still
		// reconcile from metadata alone, so log and continue.
		log.Printf("pending booking insert error for session %v: %v", session.Id, err)
	}

	h.metrics.CheckoutSessionsTotal.WithLabelValues("created").Inc()

	return c.JSON(fiber.Map{"session_id": session.Id})
}
