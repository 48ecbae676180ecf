package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleUser      Role = "user"
)

type User struct {
	Id             primitive.ObjectID `json:"_id" bson:"_id"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	HashedPassword string             `json:"-" bson:"password_hash,omitempty"`
	Role           Role               `json:"role" bson:"role"`
	GoogleId       string             `json:"-" bson:"google_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}
