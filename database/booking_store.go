package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shaheerasim320/event-hub/model"
)

// BookingStore owns the booking ledger and is the only component allowed to
// mutate event inventory. Confirmation and cancellation pair the ledger write
// with the seat update inside one transaction (requires a replica set).
type BookingStore struct {
	client   *mongo.Client
	bookings *mongo.Collection
	events   *mongo.Collection
}

func NewBookingStore(db *DB) *BookingStore {
	return &BookingStore{client: db.client, bookings: db.Bookings, events: db.Events}
}

// InsertPending records a checkout that was started but not yet paid. The
// seat inventory is untouched until the payment provider confirms.
func (s *BookingStore) InsertPending(ctx context.Context, booking *model.Booking) error {
	_, err := s.bookings.InsertOne(ctx, booking)
	return err
}

// ConfirmBySession turns "payment succeeded" into "seats consumed + booking
// confirmed". Safe to call any number of times for the same session id:
//   - the pending->confirmed transition is a compare-and-swap keyed on the
//     session id, so only one delivery wins;
//   - if no pending row exists (the insert at checkout time failed or never
//     happened) a confirmed booking is created from the session metadata,
//     guarded by the unique index on stripe_session_id;
//   - the seat increment only matches while bookedSeats+quantity <= capacity,
//     so concurrent confirmations can never oversell.
//
// When inventory cannot cover the quantity the transaction is aborted and the
// booking is cancelled with a refund flag instead (OutcomeRejected).
func (s *BookingStore) ConfirmBySession(ctx context.Context, p model.ConfirmParams) (model.ConfirmOutcome, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return "", err
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return s.confirmTxn(sc, p)
	})
	if errors.Is(err, model.ErrInsufficientInventory) {
		if markErr := s.markRejected(ctx, p); markErr != nil {
			return "", markErr
		}
		return model.OutcomeRejected, nil
	}
	if err != nil {
		return "", err
	}

	return result.(model.ConfirmOutcome), nil
}

func (s *BookingStore) confirmTxn(sc mongo.SessionContext, p model.ConfirmParams) (model.ConfirmOutcome, error) {
	now := time.Now().UTC()

	res := s.bookings.FindOneAndUpdate(sc,
		bson.M{"stripe_session_id": p.SessionId, "status": model.BookingPending},
		bson.M{"$set": bson.M{
			"status":         model.BookingConfirmed,
			"payment_status": model.PaymentPaid,
			"total_amount":   p.TotalAmount,
			"currency":       p.Currency,
			"tickets":        model.NewTickets(p.Quantity),
			"updated_at":     now,
		}})
	if err := res.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return "", err
		}
		// No pending row. Either this session was already reconciled, or the
		// pending insert never made it; distinguish the two.
		count, err := s.bookings.CountDocuments(sc, bson.M{"stripe_session_id": p.SessionId})
		if err != nil {
			return "", err
		}
		if count > 0 {
			return model.OutcomeDuplicate, nil
		}

		booking := model.Booking{
			Id:              primitive.NewObjectID(),
			User:            p.UserId,
			Event:           p.EventId,
			NumberOfTickets: p.Quantity,
			TotalAmount:     p.TotalAmount,
			Currency:        p.Currency,
			Status:          model.BookingConfirmed,
			PaymentStatus:   model.PaymentPaid,
			StripeSessionId: p.SessionId,
			Tickets:         model.NewTickets(p.Quantity),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := s.bookings.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return model.OutcomeDuplicate, nil
			}
			return "", err
		}
	}

	// Bounded seat consumption: matches only while the invariant
	// 0 <= bookedSeats+quantity <= capacity holds.
	upd, err := s.events.UpdateOne(sc,
		bson.M{
			"_id": p.EventId,
			"$expr": bson.M{"$lte": bson.A{
				bson.M{"$add": bson.A{"$booked_seats", int64(p.Quantity)}},
				"$capacity",
			}},
		},
		bson.M{"$inc": bson.M{"booked_seats": int64(p.Quantity), "available_seats": -int64(p.Quantity)}})
	if err != nil {
		return "", err
	}
	if upd.MatchedCount == 0 {
		// aborts the transaction, the booking stays/returns to pending
		return "", model.ErrInsufficientInventory
	}

	return model.OutcomeConfirmed, nil
}

// markRejected is the compensation path: the payment went through but the
// seats are gone, so the booking is recorded as cancelled with the full
// amount flagged for refund. Upserts so a lost pending row still leaves an
// auditable ledger entry.
func (s *BookingStore) markRejected(ctx context.Context, p model.ConfirmParams) error {
	now := time.Now().UTC()
	_, err := s.bookings.UpdateOne(ctx,
		bson.M{"stripe_session_id": p.SessionId},
		bson.M{
			"$set": bson.M{
				"status":              model.BookingCancelled,
				"payment_status":      model.PaymentRefunded,
				"total_amount":        p.TotalAmount,
				"currency":            p.Currency,
				"refund_amount":       p.TotalAmount,
				"cancellation_reason": "event sold out before payment completed",
				"cancelled_at":        now,
				"updated_at":          now,
			},
			"$setOnInsert": bson.M{
				"_id":               primitive.NewObjectID(),
				"user":              p.UserId,
				"event":             p.EventId,
				"number_of_tickets": p.Quantity,
				"created_at":        now,
			},
		},
		options.Update().SetUpsert(true))
	return err
}

// Cancel transitions a confirmed+paid booking to cancelled/refunded and
// returns its seats to the event, both inside one transaction.
func (s *BookingStore) Cancel(ctx context.Context, id primitive.ObjectID, reason string) (*model.Booking, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()

		var booking model.Booking
		err := s.bookings.FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": model.BookingConfirmed, "payment_status": model.PaymentPaid},
			bson.M{"$set": bson.M{
				"status":              model.BookingCancelled,
				"payment_status":      model.PaymentRefunded,
				"cancellation_reason": reason,
				"cancelled_at":        now,
				"updated_at":          now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&booking)
		if errors.Is(err, mongo.ErrNoDocuments) {
			count, countErr := s.bookings.CountDocuments(sc, bson.M{"_id": id})
			if countErr != nil {
				return nil, countErr
			}
			if count == 0 {
				return nil, fmt.Errorf("%w: booking %v", model.ErrNotFound, id.Hex())
			}
			return nil, model.ErrNotCancellable
		}
		if err != nil {
			return nil, err
		}

		booking.RefundAmount = booking.TotalAmount
		if _, err := s.bookings.UpdateOne(sc, bson.M{"_id": id},
			bson.M{"$set": bson.M{"refund_amount": booking.RefundAmount}}); err != nil {
			return nil, err
		}

		// Release the seats, floored so booked_seats never goes negative.
		// A missing event (deleted meanwhile) is fine, the cancellation
		// itself still stands.
		qty := int64(booking.NumberOfTickets)
		if _, err := s.events.UpdateOne(sc,
			bson.M{"_id": booking.Event, "booked_seats": bson.M{"$gte": qty}},
			bson.M{"$inc": bson.M{"booked_seats": -qty, "available_seats": qty}}); err != nil {
			return nil, err
		}

		return &booking, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.Booking), nil
}

func (s *BookingStore) GetById(ctx context.Context, id primitive.ObjectID) (*model.Booking, error) {
	var booking model.Booking
	err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: booking %v", model.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUser returns the user's bookings newest first, each joined with its
// event (nil when the event was deleted).
func (s *BookingStore) ListByUser(ctx context.Context, userId primitive.ObjectID) ([]model.BookingWithEvent, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userId}}},
		{{Key: "$sort", Value: bson.M{"created_at": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "events",
			"localField":   "event",
			"foreignField": "_id",
			"as":           "event_info",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$event_info", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := s.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	bookings := []model.BookingWithEvent{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *BookingStore) CountActiveForEvent(ctx context.Context, eventId primitive.ObjectID) (int64, error) {
	return s.bookings.CountDocuments(ctx, bson.M{
		"event":          eventId,
		"status":         model.BookingConfirmed,
		"payment_status": model.PaymentPaid,
	})
}

func (s *BookingStore) Count(ctx context.Context) (int64, error) {
	return s.bookings.CountDocuments(ctx, bson.M{})
}

// Revenue sums total_amount over confirmed bookings.
func (s *BookingStore) Revenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": model.BookingConfirmed}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total_amount"}}}},
	}

	cur, err := s.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
