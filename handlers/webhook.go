package handlers

import (
	stderrors "errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/errors"
	"github.com/shaheerasim320/event-hub/model"
	"github.com/shaheerasim320/event-hub/payment"
)

// StripeWebhook is the system of record for turning "payment succeeded" into
// "seat consumed + booking exists". Response codes matter to the provider:
// 4xx means "do not retry" (bad signature, unusable payload), 5xx means
// "retry later" (our storage was unavailable). Replays of the same session
// id are acknowledged without applying anything twice.
func (h *Handler) StripeWebhook(c *fiber.Ctx) error {
	event, err := h.payments.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if isErr(err, payment.ErrInvalidSignature) {
			h.metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
			log.Printf("webhook rejected: %v", err)
			return errors.RaiseBadRequestError(c, "webhook signature verification failed")
		}
		// signature checked out but the payload could not be decoded
		h.metrics.WebhookEventsTotal.WithLabelValues("parse_error").Inc()
		log.Printf("webhook payload undecodable: %v", err)
		return errors.RaiseBadRequestError(c, "unusable webhook payload")
	}

	if event.Type != payment.EventCheckoutCompleted {
		// acknowledge irrelevant event types so the provider stops retrying
		h.metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		return c.JSON(fiber.Map{"received": true})
	}

	params, err := confirmParamsFromSession(event.Session)
	if err != nil {
		// unusable metadata will not get better on retry
		h.metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		log.Printf("webhook session %v has unusable metadata: %v", event.Session.Id, err)
		return errors.RaiseBadRequestError(c, "unusable session metadata")
	}

	outcome, err := h.bookings.ConfirmBySession(c.Context(), params)
	if err != nil {
		h.metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		log.Printf("webhook reconciliation failed for session %v: %v", params.SessionId, err)
		return errors.RaiseInternalServerError(c, "reconciliation failed")
	}

	h.metrics.WebhookEventsTotal.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case model.OutcomeDuplicate:
		log.Printf("webhook replay for session %v ignored", params.SessionId)
	case model.OutcomeRejected:
		log.Printf("session %v paid but event %v sold out, booking cancelled for refund",
			params.SessionId, params.EventId.Hex())
	}

	return c.JSON(fiber.Map{"received": true})
}

// confirmParamsFromSession rebuilds the reconciliation inputs from the
// session metadata planted at checkout time. The metadata is the source of
// truth, client input plays no part here.
func confirmParamsFromSession(session payment.SessionData) (model.ConfirmParams, error) {
	eventId, err := primitive.ObjectIDFromHex(session.Metadata["eventId"])
	if err != nil {
		return model.ConfirmParams{}, err
	}
	userId, err := primitive.ObjectIDFromHex(session.Metadata["userId"])
	if err != nil {
		return model.ConfirmParams{}, err
	}
	quantity, err := strconv.ParseUint(session.Metadata["quantity"], 10, 32)
	if err != nil || quantity < 1 {
		return model.ConfirmParams{}, errInvalidQuantity
	}

	// provider total is in minor units
	total, _ := decimal.NewFromInt(session.AmountTotal).Div(decimal.NewFromInt(100)).Float64()

	return model.ConfirmParams{
		SessionId:   session.Id,
		EventId:     eventId,
		UserId:      userId,
		Quantity:    uint(quantity),
		TotalAmount: total,
		Currency:    session.Currency,
	}, nil
}

var errInvalidQuantity = stderrors.New("metadata quantity must be a positive integer")
