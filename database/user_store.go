package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shaheerasim320/event-hub/model"
)

type UserStore struct {
	users *mongo.Collection
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{users: db.Users}
}

// Insert stores a new user. Emails are case-normalized and unique, a
// duplicate surfaces as model.ErrDuplicateEmail.
func (s *UserStore) Insert(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", model.ErrDuplicateEmail, user.Email)
	}
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %v", model.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetById(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %v", model.ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.users.CountDocuments(ctx, bson.M{})
}
