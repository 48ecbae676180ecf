package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB wraps the Mongo client and the collections the stores operate on.
// It is constructed once in main and injected, no package-level state.
type DB struct {
	client   *mongo.Client
	Events   *mongo.Collection
	Bookings *mongo.Collection
	Users    *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("db is not available: %w", err)
	}

	database := client.Database(dbName)
	db := &DB{
		client:   client,
		Events:   database.Collection("events"),
		Bookings: database.Collection("bookings"),
		Users:    database.Collection("users"),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("cannot create indexes: %w", err)
	}

	return db, nil
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	// The unique sparse index on the payment session id is the idempotency
	// guard for webhook reconciliation: a concurrent second insert for the
	// same session fails with a duplicate key error instead of double-booking.
	_, err := db.Bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stripe_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "event", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "organizer", Value: 1}}},
	})
	return err
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
