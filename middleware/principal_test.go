package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shaheerasim320/event-hub/model"
)

func TestCanManageEvent(t *testing.T) {
	organizer := primitive.NewObjectID()
	event := &model.Event{Organizer: organizer}

	owner := Principal{UserId: organizer, Role: model.RoleOrganizer}
	admin := Principal{UserId: primitive.NewObjectID(), Role: model.RoleAdmin}
	stranger := Principal{UserId: primitive.NewObjectID(), Role: model.RoleOrganizer}

	assert.True(t, owner.CanManageEvent(event))
	assert.True(t, admin.CanManageEvent(event))
	assert.False(t, stranger.CanManageEvent(event))
}

func TestCanAccessBooking(t *testing.T) {
	userId := primitive.NewObjectID()
	booking := &model.Booking{User: userId}

	owner := Principal{UserId: userId, Role: model.RoleUser}
	admin := Principal{UserId: primitive.NewObjectID(), Role: model.RoleAdmin}
	stranger := Principal{UserId: primitive.NewObjectID(), Role: model.RoleUser}

	assert.True(t, owner.CanAccessBooking(booking))
	assert.True(t, admin.CanAccessBooking(booking))
	assert.False(t, stranger.CanAccessBooking(booking))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, Principal{Role: model.RoleAdmin}.IsAdmin())
	assert.False(t, Principal{Role: model.RoleUser}.IsAdmin())
	assert.False(t, Principal{Role: model.RoleOrganizer}.IsAdmin())
}
