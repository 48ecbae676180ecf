package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shaheerasim320/event-hub/model"
)

// EventStore is the Mongo-backed read/write side for events. The inventory
// fields are only mutated here through conditional updates, never read-modify-
// write from application code.
type EventStore struct {
	events *mongo.Collection
}

func NewEventStore(db *DB) *EventStore {
	return &EventStore{events: db.Events}
}

func (s *EventStore) List(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	query := bson.M{}

	status := filter.Status
	if status == "" {
		status = model.EventPublished
	}
	query["status"] = status

	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"location.venue": pattern},
		}
	}
	if filter.Location != "" {
		query["location.venue"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Location), Options: "i"}
	}
	if filter.Date != nil {
		dayStart := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, filter.Date.Location())
		query["start_time"] = bson.M{"$gte": dayStart, "$lt": dayStart.AddDate(0, 0, 1)}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 12
	}

	total, err := s.events.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := s.events.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	events := []model.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (s *EventStore) GetById(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	var event model.Event
	err := s.events.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: event %v", model.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *EventStore) ListFeatured(ctx context.Context, limit int64) ([]model.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(limit)

	cur, err := s.events.Find(ctx, bson.M{"status": model.EventPublished, "is_featured": true}, opts)
	if err != nil {
		return nil, err
	}

	events := []model.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventStore) ListByOrganizer(ctx context.Context, organizerId primitive.ObjectID) ([]model.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})

	cur, err := s.events.Find(ctx, bson.M{"organizer": organizerId}, opts)
	if err != nil {
		return nil, err
	}

	events := []model.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventStore) CategoryCounts(ctx context.Context) ([]model.CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": model.EventPublished}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
		{{Key: "$project", Value: bson.M{"name": "$_id", "count": 1, "_id": 0}}},
	}

	cur, err := s.events.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	counts := []model.CategoryCount{}
	if err := cur.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *EventStore) Insert(ctx context.Context, event *model.Event) error {
	_, err := s.events.InsertOne(ctx, event)
	return err
}

func (s *EventStore) Update(ctx context.Context, event *model.Event) error {
	res, err := s.events.ReplaceOne(ctx, bson.M{"_id": event.Id}, event)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: event %v", model.ErrNotFound, event.Id.Hex())
	}
	return nil
}

func (s *EventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: event %v", model.ErrNotFound, id.Hex())
	}
	return nil
}

func (s *EventStore) Count(ctx context.Context) (int64, error) {
	return s.events.CountDocuments(ctx, bson.M{})
}
