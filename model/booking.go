package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Ticket struct {
	TicketId      string     `json:"ticket_id" bson:"ticket_id"`
	AttendeeName  string     `json:"attendee_name" bson:"attendee_name"`
	AttendeeEmail string     `json:"attendee_email" bson:"attendee_email"`
	IsUsed        bool       `json:"is_used" bson:"is_used"`
	UsedAt        *time.Time `json:"used_at,omitempty" bson:"used_at,omitempty"`
}

type Booking struct {
	Id                 primitive.ObjectID `json:"_id" bson:"_id"`
	User               primitive.ObjectID `json:"user" bson:"user"`
	Event              primitive.ObjectID `json:"event" bson:"event"`
	NumberOfTickets    uint               `json:"number_of_tickets" bson:"number_of_tickets"`
	TotalAmount        float64            `json:"total_amount" bson:"total_amount"`
	Currency           string             `json:"currency" bson:"currency"`
	Status             BookingStatus      `json:"status" bson:"status"`
	PaymentStatus      PaymentStatus      `json:"payment_status" bson:"payment_status"`
	StripeSessionId    string             `json:"stripe_session_id,omitempty" bson:"stripe_session_id,omitempty"`
	Tickets            []Ticket           `json:"tickets,omitempty" bson:"tickets,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	RefundAmount       float64            `json:"refund_amount" bson:"refund_amount"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewTickets mints one ticket stub per seat. Attendee fields stay empty until
// the ticket is assigned.
func NewTickets(n uint) []Ticket {
	tickets := make([]Ticket, 0, n)
	for i := uint(0); i < n; i++ {
		tickets = append(tickets, Ticket{TicketId: "TICKET-" + uuid.NewString()})
	}
	return tickets
}

// IsActive reports whether the booking counts toward inventory consumption
// and toward the user's active bookings. Only confirmed+paid qualifies.
func (b *Booking) IsActive() bool {
	return b.Status == BookingConfirmed && b.PaymentStatus == PaymentPaid
}

func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingConfirmed && b.PaymentStatus == PaymentPaid
}

// BookingWithEvent is a booking joined with its event for user-facing views.
// EventInfo is nil when the referenced event no longer exists.
type BookingWithEvent struct {
	Booking   `bson:",inline"`
	EventInfo *Event `json:"event_info,omitempty" bson:"event_info,omitempty"`
}

// ConfirmOutcome reports how a payment confirmation was reconciled.
type ConfirmOutcome string

const (
	// OutcomeConfirmed: booking confirmed and seats consumed.
	OutcomeConfirmed ConfirmOutcome = "confirmed"
	// OutcomeDuplicate: this session id was already reconciled, nothing applied.
	OutcomeDuplicate ConfirmOutcome = "duplicate"
	// OutcomeRejected: inventory could not cover the quantity, booking
	// cancelled and flagged for refund.
	OutcomeRejected ConfirmOutcome = "rejected"
)

// ConfirmParams carries the reconciliation inputs extracted from the payment
// session metadata, the single source of truth for what to book.
type ConfirmParams struct {
	SessionId   string
	EventId     primitive.ObjectID
	UserId      primitive.ObjectID
	Quantity    uint
	TotalAmount float64
	Currency    string
}
