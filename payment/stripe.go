// Package payment wraps the Stripe hosted-checkout flow: session creation on
// the way out, signed webhook events on the way back.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
	"github.com/stripe/stripe-go/webhook"
)

// EventCheckoutCompleted is the only provider event type that triggers
// booking reconciliation.
const EventCheckoutCompleted = "checkout.session.completed"

var ErrInvalidSignature = errors.New("webhook signature verification failed")

// CheckoutParams describes one hosted-checkout session to create. UnitAmount
// is in the provider's minor currency units (cents).
type CheckoutParams struct {
	EventId    string
	EventTitle string
	UserId     string
	Quantity   uint
	UnitAmount int64
	Currency   string
}

// CheckoutSession is the redirectable handle returned by the provider.
type CheckoutSession struct {
	Id string `json:"session_id"`
}

// SessionData is the subset of the provider's session object the webhook
// needs: the idempotency key, the charged total and the reconciliation
// metadata planted at session creation time.
type SessionData struct {
	Id          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

// WebhookEvent is a verified provider callback. Session is only populated for
// EventCheckoutCompleted.
type WebhookEvent struct {
	Type    string
	Session SessionData
}

// Provider is the payment collaborator as seen by the handlers.
type Provider interface {
	CreateCheckoutSession(p CheckoutParams) (*CheckoutSession, error)
	ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error)
}

// StripeProvider talks to the real Stripe API through an injected client
// rather than the package-global key.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	baseURL       string
}

func NewStripeProvider(apiKey, webhookSecret, baseURL string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
	}
}

// CreateCheckoutSession builds a card-payment session for the event's hosted
// checkout. The metadata is the only channel the webhook has to reconstruct
// what to book, so it must carry event, user and quantity.
func (p *StripeProvider) CreateCheckoutSession(cp CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String("payment"),
		SuccessURL:         stripe.String(fmt.Sprintf("%s/my-bookings?success=true&eventId=%s", p.baseURL, cp.EventId)),
		CancelURL:          stripe.String(fmt.Sprintf("%s/events/%s?canceled=true", p.baseURL, cp.EventId)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Name:     stripe.String(cp.EventTitle),
			Amount:   stripe.Int64(cp.UnitAmount),
			Currency: stripe.String(cp.Currency),
			Quantity: stripe.Int64(int64(cp.Quantity)),
		}},
	}
	params.AddMetadata("eventId", cp.EventId)
	params.AddMetadata("userId", cp.UserId)
	params.AddMetadata("quantity", fmt.Sprint(cp.Quantity))

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session creation failed: %w", err)
	}

	return &CheckoutSession{Id: sess.ID}, nil
}

// ParseWebhook verifies the provider signature and decodes the event. A bad
// signature fails closed with ErrInvalidSignature and nothing else happens.
func (p *StripeProvider) ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	parsed := &WebhookEvent{Type: event.Type}
	if event.Type == EventCheckoutCompleted {
		if err := json.Unmarshal(event.Data.Raw, &parsed.Session); err != nil {
			return nil, fmt.Errorf("malformed checkout session payload: %w", err)
		}
	}

	return parsed, nil
}
