package handlers

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/metrics"
	"github.com/shaheerasim320/event-hub/model"
	"github.com/shaheerasim320/event-hub/payment"
)

// EventStore is the slice of the events collection the handlers need.
type EventStore interface {
	List(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	GetById(ctx context.Context, id primitive.ObjectID) (*model.Event, error)
	ListFeatured(ctx context.Context, limit int64) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerId primitive.ObjectID) ([]model.Event, error)
	CategoryCounts(ctx context.Context) ([]model.CategoryCount, error)
	Insert(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// BookingStore is the booking ledger. ConfirmBySession and Cancel carry the
// inventory invariant: they are the only operations that touch seat counts.
type BookingStore interface {
	InsertPending(ctx context.Context, booking *model.Booking) error
	ConfirmBySession(ctx context.Context, p model.ConfirmParams) (model.ConfirmOutcome, error)
	Cancel(ctx context.Context, id primitive.ObjectID, reason string) (*model.Booking, error)
	GetById(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	ListByUser(ctx context.Context, userId primitive.ObjectID) ([]model.BookingWithEvent, error)
	CountActiveForEvent(ctx context.Context, eventId primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
}

type UserStore interface {
	Insert(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetById(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	Count(ctx context.Context) (int64, error)
}

// Handler carries the injected collaborators for every route. Constructed
// once in main, no ambient state.
type Handler struct {
	events    EventStore
	bookings  BookingStore
	users     UserStore
	payments  payment.Provider
	metrics   *metrics.Metrics
	jwtSecret string
}

func New(events EventStore, bookings BookingStore, users UserStore, payments payment.Provider, m *metrics.Metrics, jwtSecret string) *Handler {
	return &Handler{
		events:    events,
		bookings:  bookings,
		users:     users,
		payments:  payments,
		metrics:   m,
		jwtSecret: jwtSecret,
	}
}

// isErr avoids clashing with the local errors package in handler files.
func isErr(err, target error) bool {
	return stderrors.Is(err, target)
}
